package llm

const assessPrompt = `You are the falsification step of a market analyst's research loop. You are given one working hypothesis and the observations gathered this cycle. Decide whether the observations are consistent with the hypothesis, contrary to it, or inconclusive.

Rules:
- Judge ONLY against the observations below. Do not use outside knowledge of prices or news.
- "CONTRARY" means the observations actively disagree with what the hypothesis predicts.
- "CONSISTENT" means the observations move the way the hypothesis predicts.
- "INCONCLUSIVE" means the observations do not bear on the hypothesis, or they are mixed.
- If the verdict is CONTRARY, propose a short lesson: the rule the analyst should adopt to avoid repeating this mistake.

Respond ONLY with JSON. No markdown, no explanation. Example:
{"verdict":"CONTRARY","justification":"BTC dominance rose 1.8%% while the hypothesis expected it to fall","lesson":"Do not call alt rotation before dominance rolls over on the weekly"}

Hypothesis:
%s

Observations:
%s`
