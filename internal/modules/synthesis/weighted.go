package synthesis

import (
	"github.com/aristath/lifecandle/internal/domain"
	"github.com/aristath/lifecandle/internal/modules/calendar"
)

const (
	prePhasePenalty = -5.0
	weightedReason  = "运势由命局、大运、流年与人生阶段综合决定"
)

// BaseScore maps the day pillar's stem to 50 plus five times its elemental weight
func BaseScore(dayPillar string) float64 {
	return 50 + float64(calendar.WeightOf(dayPillar))*5
}

// PhaseBonus is a fixed penalty before the first phase, otherwise twice the
// phase stem's elemental weight.
func PhaseBonus(phase string) float64 {
	if phase == calendar.PrePhase {
		return prePhasePenalty
	}
	return float64(calendar.WeightOf(phase)) * 2
}

// YearBonus is the elemental weight of the year term's stem
func YearBonus(term string) float64 {
	return float64(calendar.WeightOf(term))
}

// AgeBonus is a step function peaking between 30 and 44
func AgeBonus(age int) float64 {
	switch {
	case age < 18:
		return -8
	case age < 30:
		return 0
	case age < 45:
		return 6
	case age < 60:
		return 3
	default:
		return 1
	}
}

// Weighted builds a timeline scored from the elemental tables. Output only
// varies between calls by the ±2 noise term.
func (s *Synthesizer) Weighted(req domain.AnalysisRequest) domain.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	year, startAge := span(req)
	forward := calendar.IsForward(req.YearPillar, req.Gender)
	base := BaseScore(req.DayPillar)

	points := make([]domain.ChartPoint, 0, timelineCap(startAge))
	for age := startAge; age <= MaxAge; age++ {
		term := calendar.TermAt(year)
		phase := calendar.PhaseForAge(age, s.onset, req.FirstPhase, forward)

		score := base + PhaseBonus(phase) + YearBonus(term) + AgeBonus(age) +
			s.uniform(-weightedNoise, weightedNoise)
		score = round1(clamp(score, minScore, maxScore))

		open := score
		if n := len(points); n > 0 {
			open = points[n-1].Close
		}
		high, low := candle(open, score, weightedExtra, weightedExtra)

		points = append(points, domain.ChartPoint{
			Age:         age,
			Year:        year,
			CycleTerm:   term,
			DecadePhase: phase,
			Open:        open,
			Close:       score,
			High:        high,
			Low:         low,
			Score:       score,
			Reason:      weightedReason,
		})
		year++
	}

	return domain.AnalysisResult{
		Timeline: points,
		Report:   weightedReport(req, base, points),
	}
}

func weightedReport(req domain.AnalysisRequest, base float64, points []domain.ChartPoint) domain.NarrativeReport {
	s := float64(int(base / 10))
	up := min(9, s+1)
	down := max(5, s-1)

	return domain.NarrativeReport{
		Pillars:          req.Pillars(),
		Summary:          "命局稳定，中年运势最佳，晚年趋于平顺。",
		SummaryScore:     s,
		Personality:      "性格积极主动，有进取心。",
		PersonalityScore: up,
		Industry:         "适合技术、金融、管理类行业。",
		IndustryScore:    s,
		Geomancy:         "宜南方或东南方发展。",
		GeomancyScore:    s,
		Wealth:           "财运循序渐进，中年见成。",
		WealthScore:      up,
		Marriage:         "婚姻整体平稳，重在沟通。",
		MarriageScore:    down,
		Health:           "注意心血管与作息规律。",
		HealthScore:      down,
		Family:           "家庭关系整体和谐。",
		FamilyScore:      s,
		Crypto:           "偏向长期价值投资。",
		CryptoScore:      s,
		CryptoYear:       breakoutYear(points),
		CryptoStyle:      "现货定投 + 低频波段",
	}
}
