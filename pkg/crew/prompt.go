package crew

import (
	"fmt"
	"strings"
)

func systemPrompt(agent *Agent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s. %s\nYour personal goal is: %s", agent.Role, agent.Backstory, agent.Goal)
	if len(agent.Tools) > 0 {
		fmt.Fprintf(&sb, "\n\nYou can call these tools to gather information: %s. "+
			"Call them as many times as you need, then write your answer.", strings.Join(agent.Tools, ", "))
	}
	return sb.String()
}

func taskPrompt(task *Task, inputs map[string]string, previous []TaskOutput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Current Task: %s\n\n", Interpolate(task.Description, inputs))
	fmt.Fprintf(&sb, "This is the expected criteria for your final answer: %s\n", Interpolate(task.ExpectedOutput, inputs))
	sb.WriteString("You MUST return the actual complete content as the final answer, not a summary.\n")
	if len(previous) > 0 {
		sb.WriteString("\nThis is the context you're working with:\n")
		for i, prev := range previous {
			if i > 0 {
				sb.WriteString("\n\n----------\n\n")
			}
			sb.WriteString(prev.Raw)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nBegin! When you are done, reply with \"Final Answer:\" followed by your complete answer.")
	return sb.String()
}
