// SPDX-License-Identifier: Apache-2.0

package orchestrator

import "github.com/kusari-oss/fixit/internal/fixit/reasoning"

const (
	ExecutorName   = "Executor"
	AnalyzerName   = "Analyzer"
	RemediatorName = "Remediator"
)

func executorRole(tools []reasoning.Tool) reasoning.Role {
	return reasoning.Role{
		Name:      ExecutorName,
		Role:      "Command executor who runs system commands safely",
		Goal:      "Execute system commands and collect outputs, analyze the output and make a fix to achieve the expected output",
		Backstory: "I am a skilled system administrator with expertise in executing commands safely and efficiently. I understand the implications of each command I run.",
		Tools:     tools,
	}
}

func analyzerRole(tools []reasoning.Tool) reasoning.Role {
	return reasoning.Role{
		Name:      AnalyzerName,
		Role:      "System output analyzer who interprets command results",
		Goal:      "Analyze system outputs and identify issues",
		Backstory: "I am an expert system analyzer with deep knowledge of Linux/Unix systems. I specialize in interpreting system outputs and identifying root causes of issues.",
		Tools:     tools,
	}
}

func remediatorRole(tools []reasoning.Tool) reasoning.Role {
	return reasoning.Role{
		Name:      RemediatorName,
		Role:      "Problem solver who suggests and implements fixes",
		Goal:      "Provide and implement solutions for identified issues",
		Backstory: "I am an experienced troubleshooter who specializes in developing and implementing solutions for system issues. I carefully consider the impact of each fix.",
		Tools:     tools,
	}
}
