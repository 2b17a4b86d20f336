package synthesis

import (
	"github.com/aristath/lifecandle/internal/domain"
	"github.com/aristath/lifecandle/internal/modules/calendar"
)

var walkReasons = []string{
	"今年运势平稳，适合积累。",
	"财星高照，有意外之喜。",
	"注意身体健康，避免过度劳累。",
	"事业上有贵人相助，进展顺利。",
	"感情生活丰富，但需注意沟通。",
	"投资需谨慎，避免高风险操作。",
	"学业进步明显，考试运佳。",
	"家庭和睦，幸福美满。",
	"可能会有变动，需做好心理准备。",
	"虽然有压力，但也是成长的机会。",
}

// reportPools holds the text choices per report dimension
var reportPools = struct {
	summary, personality, industry, geomancy, wealth,
	marriage, health, family, crypto, style []string
}{
	summary: []string{
		"命主性格坚韧，财运起伏较大，晚年运势平稳。",
		"早年多磨砺，中年渐入佳境，晚景安然。",
		"一生起伏有度，贵在守成，厚积薄发。",
	},
	personality: []string{
		"性格开朗，善于交际，但有时过于急躁。",
		"心思缜密，做事稳重，偶有优柔寡断。",
		"胆识过人，敢闯敢拼，需防冲动。",
	},
	industry: []string{
		"适合从事金融、科技或创意类工作。",
		"宜从事教育、咨询或管理类工作。",
		"适合贸易、传媒或自主创业。",
	},
	geomancy: []string{
		"宜居南方，喜火土，家中可摆放红色饰品。",
		"宜向东发展，多植绿植，亲近山林。",
		"宜近水而居，居所保持通透明亮。",
	},
	wealth: []string{
		"财运中等偏上，中年有大财。",
		"正财稳定，偏财需谨慎。",
		"早年聚财不易，四十后渐丰。",
	},
	marriage: []string{
		"婚姻美满，配偶得力。",
		"感情需经磨合，晚婚更佳。",
		"夫妻相敬如宾，重在包容。",
	},
	health: []string{
		"注意心血管健康，多运动。",
		"注意脾胃调养，饮食规律。",
		"注意作息，避免熬夜伤神。",
	},
	family: []string{
		"家庭关系和谐，子女孝顺。",
		"六亲缘分一般，自立自强。",
		"得长辈庇荫，兄弟互助。",
	},
	crypto: []string{
		"适合长线持有 BTC/ETH，避免高频合约。",
		"宜小仓位试水，严守止损。",
		"适合链上挖掘早期项目，控制回撤。",
	},
	style: []string{
		"现货定投 + 少量波段",
		"链上Alpha",
		"高倍合约",
	},
}

const (
	walkReportMin = 6
	walkReportMax = 9
)

// RandomWalk builds a timeline whose closes follow a bounded random walk
// starting at 50.
func (s *Synthesizer) RandomWalk(req domain.AnalysisRequest) domain.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	year, startAge := span(req)
	forward := calendar.IsForward(req.YearPillar, req.Gender)

	points := make([]domain.ChartPoint, 0, timelineCap(startAge))
	prev := walkSeed
	for age := startAge; age <= MaxAge; age++ {
		open := prev
		closing := round1(clamp(open+s.uniform(-walkMaxDelta, walkMaxDelta), minScore, maxScore))
		high, low := candle(open, closing, s.uniform(0, walkMaxExtra), s.uniform(0, walkMaxExtra))

		points = append(points, domain.ChartPoint{
			Age:         age,
			Year:        year,
			CycleTerm:   calendar.TermAt(year),
			DecadePhase: calendar.PhaseForAge(age, s.onset, req.FirstPhase, forward),
			Open:        open,
			Close:       closing,
			High:        high,
			Low:         low,
			Score:       closing,
			Reason:      s.pick(walkReasons),
		})
		prev = closing
		year++
	}

	return domain.AnalysisResult{
		Timeline: points,
		Report:   s.walkReport(req, points),
	}
}

func (s *Synthesizer) walkReport(req domain.AnalysisRequest, points []domain.ChartPoint) domain.NarrativeReport {
	score := func() float64 {
		return float64(s.intBetween(walkReportMin, walkReportMax))
	}
	p := reportPools

	return domain.NarrativeReport{
		Pillars:          req.Pillars(),
		Summary:          s.pick(p.summary),
		SummaryScore:     score(),
		Personality:      s.pick(p.personality),
		PersonalityScore: score(),
		Industry:         s.pick(p.industry),
		IndustryScore:    score(),
		Geomancy:         s.pick(p.geomancy),
		GeomancyScore:    score(),
		Wealth:           s.pick(p.wealth),
		WealthScore:      score(),
		Marriage:         s.pick(p.marriage),
		MarriageScore:    score(),
		Health:           s.pick(p.health),
		HealthScore:      score(),
		Family:           s.pick(p.family),
		FamilyScore:      score(),
		Crypto:           s.pick(p.crypto),
		CryptoScore:      score(),
		CryptoYear:       breakoutYear(points),
		CryptoStyle:      s.pick(p.style),
	}
}
