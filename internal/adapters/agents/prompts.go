package agents

import (
	"fmt"
	"sort"
	"strings"
)

const maxLogExcerpt = 500

func excerpt(log string) string {
	if len(log) > maxLogExcerpt {
		return log[:maxLogExcerpt]
	}
	return log
}

func patternClassificationPrompt(log string) string {
	return fmt.Sprintf(`You are a production SRE assistant with access to live web search.

Task:
Given a single error log string, identify the most commonly accepted
failure pattern and its meaning.

Rules:
- Be extremely concise.
- Use only one best-fit pattern.
- Meaning must be one short sentence.
- Do not speculate.
- Do not include sources, explanations, or extra fields.
- If the error meaning is unclear, use pattern "unknown".

Input:
%s

Output (STRICT JSON ONLY):
{
  "<pattern>": "<meaning>"
}
`, log)
}

func hypothesisPrompt(pattern, log string) string {
	return fmt.Sprintf(`You are a production SRE assistant analyzing application error logs.

Task:
Based on the classified error pattern and the log details, generate a concise
hypothesis explaining the likely root cause.

Pattern: %s
Log: %s

Rules:
- Generate one clear, professional hypothesis (2-3 sentences)
- Be specific about the likely cause
- Do not include sources or citations in the hypothesis text

Output (STRICT JSON ONLY):
{
  "hypothesis": "<your hypothesis here>"
}
`, pattern, excerpt(log))
}

func possibilitiesPrompt(pattern, hypothesis, log string) string {
	return fmt.Sprintf(`You are a production SRE assistant analyzing application error logs.

Task:
Based on the error pattern, hypothesis, and log details, generate 3-5 possible
root causes with probability scores, severity levels, and actionable
recommendations.

Pattern: %s
Hypothesis: %s
Log: %s

Rules:
- Generate 3-5 possible root causes
- Each cause must have: cause (string), probability (float 0.0-1.0), severity (critical/high/medium/low), action (string)
- Probabilities should sum to approximately 1.0
- Order by probability (highest first)
- Actions should be specific and actionable

Output (STRICT JSON ONLY):
{
  "possibilities": [
    {
      "cause": "<root cause description>",
      "probability": <float between 0.0 and 1.0>,
      "severity": "<critical|high|medium|low>",
      "action": "<specific actionable recommendation>"
    }
  ]
}
`, pattern, hypothesis, excerpt(log))
}

const metricsSystemPrompt = `You are an expert SRE metrics analyst. Interpret the reported resource
utilization figures and return a JSON object with 'status' (ok/degraded/critical),
'alerts' (list of strings describing threshold breaches) and 'summary' (brief text).
Respond ONLY with valid JSON, no markdown, no extra text.`

func metricsUserPrompt(utilization map[string]string, logText string) string {
	keys := make([]string, 0, len(utilization))
	for k := range utilization {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Reported utilization:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, utilization[k])
	}
	b.WriteString("\nRecent log excerpt:\n")
	b.WriteString(excerpt(logText))
	return b.String()
}

const deploySystemPrompt = `You are an Expert DevOps Engineer. Analyze the following configuration diff.
Identify any changes that could negatively impact system stability (e.g.,
reducing resources, removing env vars). Return a JSON object with 'changes'
(a dictionary where keys are the changed parameters and values are brief
explanations of the risk) and 'risk_level' (Low/Medium/High).
Respond ONLY with valid JSON.`
