package skills

import "fmt"

// BehaviorGuide is the host-repo's static behavior preamble, the first
// element of the worker system prompt composition (§4.5 step 4).
const BehaviorGuide = `You are a background worker agent. Work autonomously toward the task below, using only the tools available to you. Do not ask the user questions; make reasonable assumptions and note them in your final result.`

// ProtocolInstructions describes the worker's steering/abort contract.
const ProtocolInstructions = `You may receive "[Steer] ..." messages from the operator between turns; treat them as updated instructions. There is no way to ask a clarifying question: proceed with your best judgment.`

// BuildSystemPrompt composes the worker system prompt in the order §4.5
// specifies: host behavior guide, skill summaries, protocol instructions,
// working-directory reminder, task heading with instructions.
func BuildSystemPrompt(discovery *Discovery, taskDir, instructions string) string {
	var skillSummaries string
	if discovery != nil {
		if s, err := discovery.Summaries(); err == nil {
			skillSummaries = s
		}
	}

	prompt := BehaviorGuide + "\n\n"
	if skillSummaries != "" {
		prompt += "Available skills:\n" + skillSummaries + "\n"
	}
	prompt += ProtocolInstructions + "\n\n"
	prompt += fmt.Sprintf("Your working directory is %s. All relative file paths are resolved against it.\n\n", taskDir)
	prompt += "## Task\n\n" + instructions
	return prompt
}
