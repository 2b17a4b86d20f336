// Package calendar provides lookups over the 60-term sexagenary cycle.
//
// Everything here is pure: tables are fixed at compile time and no function
// fails. Malformed labels fall back to documented defaults.
package calendar

// CycleLength is the number of terms in the sexagenary cycle
const CycleLength = 60

// PrePhase labels ages before the first decade phase begins
const PrePhase = "童限"

// epochOffset anchors year 4 CE to the first term of the cycle
const epochOffset = 4

// Terms is the ordered sexagenary cycle starting at 甲子
var Terms = [CycleLength]string{
	"甲子", "乙丑", "丙寅", "丁卯", "戊辰", "己巳", "庚午", "辛未", "壬申", "癸酉",
	"甲戌", "乙亥", "丙子", "丁丑", "戊寅", "己卯", "庚辰", "辛巳", "壬午", "癸未",
	"甲申", "乙酉", "丙戌", "丁亥", "戊子", "己丑", "庚寅", "辛卯", "壬辰", "癸巳",
	"甲午", "乙未", "丙申", "丁酉", "戊戌", "己亥", "庚子", "辛丑", "壬寅", "癸卯",
	"甲辰", "乙巳", "丙午", "丁未", "戊申", "己酉", "庚戌", "辛亥", "壬子", "癸丑",
	"甲寅", "乙卯", "丙辰", "丁巳", "戊午", "己未", "庚申", "辛酉", "壬戌", "癸亥",
}

var termIndex = func() map[string]int {
	idx := make(map[string]int, CycleLength)
	for i, t := range Terms {
		idx[t] = i
	}
	return idx
}()

func wrap(i int) int {
	return ((i % CycleLength) + CycleLength) % CycleLength
}

// TermAt returns the cycle term of a calendar year
func TermAt(year int) string {
	return Terms[wrap(year-epochOffset)]
}

// IndexOf returns the position of label in the cycle
func IndexOf(label string) (int, bool) {
	i, ok := termIndex[label]
	return i, ok
}

// DecadePhase walks step positions forward or backward from firstPhase,
// wrapping modulo 60. An unknown firstPhase starts the walk at 甲子.
func DecadePhase(firstPhase string, step int, forward bool) string {
	start, _ := IndexOf(firstPhase)
	if !forward {
		step = -step
	}
	return Terms[wrap(start+step)]
}

// PhaseForAge returns PrePhase below onsetAge, otherwise the decade phase
// covering age, advancing one step every ten years from onsetAge.
func PhaseForAge(age, onsetAge int, firstPhase string, forward bool) string {
	if age < onsetAge {
		return PrePhase
	}
	return DecadePhase(firstPhase, (age-onsetAge)/10, forward)
}
