package llm

import (
	"fmt"
	"strings"

	"github.com/aristath/lifecandle/internal/domain"
	"github.com/aristath/lifecandle/internal/modules/calendar"
)

const systemInstruction = `你是一位八字命理大师，精通加密货币市场周期。根据用户提供的四柱干支和大运信息，生成"人生K线图"数据和命理报告。

**核心规则:**
1. **年龄计算**: 采用虚岁，从 1 岁开始。
2. **K线详批**: 每年的 reason 字段必须控制在20-30字以内，简洁描述吉凶趋势即可。
3. **评分机制**: 所有维度给出 0-10 分。
4. **数据起伏**: 让评分呈现明显波动，体现"牛市"和"熊市"区别，禁止输出平滑直线。

**大运规则:**
- 顺行: 甲子 -> 乙丑 -> 丙寅...
- 逆行: 甲子 -> 癸亥 -> 壬戌...
- 以用户指定的第一步大运为起点，每步管10年。

**关键字段:**
- superLuck: 大运干支 (10年不变)
- ganZhi: 流年干支 (每年一变)

**输出JSON结构:**
{
  "bazi": ["年柱", "月柱", "日柱", "时柱"],
  "summary": "命理总评（100字）", "summaryScore": 8,
  "personality": "性格分析（80字）", "personalityScore": 8,
  "industry": "事业分析（80字）", "industryScore": 7,
  "geomancy": "风水建议：方位、地理环境、开运建议（80字）", "geomancyScore": 8,
  "wealth": "财富分析（80字）", "wealthScore": 9,
  "marriage": "婚姻分析（80字）", "marriageScore": 6,
  "health": "健康分析（60字）", "healthScore": 5,
  "family": "六亲分析（60字）", "familyScore": 7,
  "crypto": "币圈分析（60字）", "cryptoScore": 8,
  "cryptoYear": "暴富流年",
  "cryptoStyle": "链上Alpha/高倍合约/现货定投",
  "chartPoints": [
    {"age":1,"year":1990,"superLuck":"童限","ganZhi":"庚午","open":50,"close":55,"high":60,"low":45,"score":55,"reason":"开局平稳，家庭呵护"}
  ]
}

**币圈分析逻辑:**
- 偏财旺、身强 -> "链上Alpha"
- 七杀旺、胆大 -> "高倍合约"
- 正财旺、稳健 -> "现货定投"

请务必只返回纯JSON格式数据，不要包含任何markdown代码块标记。`

// userPrompt renders the per-request instructions: chart, phase direction and
// the phase fill schedule derived from the start age.
func userPrompt(req domain.AnalysisRequest) string {
	yang := calendar.IsYang(req.YearPillar)
	forward := calendar.IsForward(req.YearPillar, req.Gender)
	startAge := req.ResolvedStartAge()

	gender := "女 (坤造)"
	if req.Gender == domain.GenderMale {
		gender = "男 (乾造)"
	}
	polarity := "阴"
	if yang {
		polarity = "阳"
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "未提供"
	}

	direction := "逆行 (Backward)"
	if forward {
		direction = "顺行 (Forward)"
	}
	example := fmt.Sprintf("例如：第一步是【%s】，第二步则是【%s】",
		req.FirstPhase, calendar.DecadePhase(req.FirstPhase, 1, forward))

	var b strings.Builder
	fmt.Fprintf(&b, "请根据以下已经排好的八字四柱和指定的大运信息进行分析。\n\n")
	fmt.Fprintf(&b, "【基本信息】\n性别：%s\n姓名：%s\n出生年份：%s年 (阳历)\n\n", gender, name, req.BirthYear)
	fmt.Fprintf(&b, "【八字四柱】\n年柱：%s (天干属性：%s)\n月柱：%s\n日柱：%s\n时柱：%s\n\n",
		req.YearPillar, polarity, req.MonthPillar, req.DayPillar, req.HourPillar)
	fmt.Fprintf(&b, "【大运核心参数】\n1. 起运年龄：%s 岁 (虚岁)。\n2. 第一步大运：%s。\n3. 排序方向：%s。\n\n",
		req.StartAge, req.FirstPhase, direction)
	fmt.Fprintf(&b, "【大运序列生成】\n1. 锁定【%s】为第一步大运。\n2. 按六十甲子顺序和方向（%s）推算接下来的 9 步大运。%s\n3. 填充 JSON：\n",
		req.FirstPhase, direction, example)
	if startAge > 1 {
		fmt.Fprintf(&b, "   - Age 1 到 %d: superLuck = \"%s\"\n", startAge-1, calendar.PrePhase)
	}
	for step := 0; step < 3; step++ {
		from := startAge + step*10
		fmt.Fprintf(&b, "   - Age %d 到 %d: superLuck = [第%d步大运]\n", from, from+9, step+1)
	}
	b.WriteString("   - ...以此类推直到 100 岁。\n\n")
	b.WriteString("【特别警告】\n- superLuck 字段必须填大运干支（10年一变），不要填流年干支。\n")
	b.WriteString("- ganZhi 字段填入该年份的流年干支（每年一变，例如 2024=甲辰，2025=乙巳）。\n\n")
	b.WriteString("任务：\n1. 确认格局与喜忌。\n2. 生成 1-100 岁 (虚岁) 的人生流年K线数据。\n")
	b.WriteString("3. 在 reason 字段中提供流年详批。\n4. 生成带评分的命理分析报告（包含性格分析、币圈交易分析、发展风水分析）。\n")
	return b.String()
}
