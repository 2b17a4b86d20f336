// Package fingerprint derives content-addressed cache keys from analysis requests.
//
// The key is the sha256 of a canonical JSON object built from the fields that
// determine the output. Credential and endpoint fields are left out, so two
// requests that differ only in apiKey or apiBaseUrl share a key.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/aristath/lifecandle/internal/domain"
)

// Length is the size of a fingerprint in hex characters
const Length = sha256.Size * 2

// contentFields lists the request fields that affect the generated content.
// Numeric fields use their integer form so 1990, "1990" and 1990.0 agree.
func contentFields(req domain.AnalysisRequest) map[string]string {
	return map[string]string{
		"name":           req.Name,
		"gender":         string(req.Gender),
		"birthYear":      req.BirthYear.Canonical(),
		"yearPillar":     req.YearPillar,
		"monthPillar":    req.MonthPillar,
		"dayPillar":      req.DayPillar,
		"hourPillar":     req.HourPillar,
		"startAge":       req.StartAge.Canonical(),
		"firstSuperLuck": req.FirstPhase,
		"modelName":      req.ModelName,
	}
}

// Canonical returns the canonical serialization that Compute hashes: keys in
// sorted order, values trimmed and NFC normalized, no HTML escaping.
func Canonical(req domain.AnalysisRequest) []byte {
	fields := contentFields(req)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(&buf, k)
		buf.WriteByte(':')
		writeString(&buf, norm.NFC.String(strings.TrimSpace(fields[k])))
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

// writeString appends s as a JSON string literal
func writeString(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	// Encoding a plain string cannot fail.
	_ = enc.Encode(s)
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
}

// Compute returns the hex sha256 of Canonical(req)
func Compute(req domain.AnalysisRequest) string {
	sum := sha256.Sum256(Canonical(req))
	return hex.EncodeToString(sum[:])
}

// Valid reports whether s has the shape of a fingerprint
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil && strings.ToLower(s) == s
}
