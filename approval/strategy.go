//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package approval

import (
	"fmt"
	"strings"
)

// Step is one entry of an approval request's steps array, as carried in the
// confirm_changes tool's arguments.
type Step struct {
	Description string
	Status      string
}

// ConfirmationStrategy generates the user-facing message accompanying a
// human-in-the-loop decision. Agents with domain-specific vocabulary
// (recipes, documents, task lists) supply their own.
type ConfirmationStrategy interface {
	OnApprovalAccepted(steps []Step) string
	OnApprovalRejected(steps []Step) string
	OnStateConfirmed() string
	OnStateRejected() string
}

func enabledSteps(steps []Step) []Step {
	enabled := make([]Step, 0, len(steps))
	for _, s := range steps {
		if s.Status == "enabled" {
			enabled = append(enabled, s)
		}
	}
	return enabled
}

func acceptedMessage(intro, outro string, steps []Step) string {
	var b strings.Builder
	b.WriteString(intro)
	for i, s := range enabledSteps(steps) {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s.Description)
	}
	b.WriteString(outro)
	return b.String()
}

// DefaultConfirmationStrategy is the generic confirmation strategy used
// when an agent declares none of its own.
type DefaultConfirmationStrategy struct{}

func (DefaultConfirmationStrategy) OnApprovalAccepted(steps []Step) string {
	return acceptedMessage("Executing "+fmt.Sprint(len(enabledSteps(steps)))+" approved steps:\n\n", "\nAll steps completed successfully!", steps)
}

func (DefaultConfirmationStrategy) OnApprovalRejected(steps []Step) string {
	return "No problem! What would you like me to change about the plan?"
}

func (DefaultConfirmationStrategy) OnStateConfirmed() string {
	return "Changes confirmed and applied successfully!"
}

func (DefaultConfirmationStrategy) OnStateRejected() string {
	return "No problem! What would you like me to change?"
}

// TaskPlannerConfirmationStrategy speaks in task/plan vocabulary.
type TaskPlannerConfirmationStrategy struct{}

func (TaskPlannerConfirmationStrategy) OnApprovalAccepted(steps []Step) string {
	return acceptedMessage("Executing your requested tasks:\n\n", "\nAll tasks completed successfully!", steps)
}

func (TaskPlannerConfirmationStrategy) OnApprovalRejected(steps []Step) string {
	return "No problem! Let me revise the plan. What would you like me to change?"
}

func (TaskPlannerConfirmationStrategy) OnStateConfirmed() string {
	return "Tasks confirmed and ready to execute!"
}

func (TaskPlannerConfirmationStrategy) OnStateRejected() string {
	return "No problem! How should I adjust the task list?"
}

// RecipeConfirmationStrategy speaks in recipe vocabulary.
type RecipeConfirmationStrategy struct{}

func (RecipeConfirmationStrategy) OnApprovalAccepted(steps []Step) string {
	return acceptedMessage("Updating your recipe:\n\n", "\nRecipe updated successfully!", steps)
}

func (RecipeConfirmationStrategy) OnApprovalRejected(steps []Step) string {
	return "No problem! What ingredients or steps should I change?"
}

func (RecipeConfirmationStrategy) OnStateConfirmed() string {
	return "Recipe changes applied successfully!"
}

func (RecipeConfirmationStrategy) OnStateRejected() string {
	return "No problem! What would you like me to adjust in the recipe?"
}

// DocumentWriterConfirmationStrategy speaks in document-editing vocabulary.
type DocumentWriterConfirmationStrategy struct{}

func (DocumentWriterConfirmationStrategy) OnApprovalAccepted(steps []Step) string {
	return acceptedMessage("Applying your edits:\n\n", "\nDocument updated successfully!", steps)
}

func (DocumentWriterConfirmationStrategy) OnApprovalRejected(steps []Step) string {
	return "No problem! Which changes should I keep or modify?"
}

func (DocumentWriterConfirmationStrategy) OnStateConfirmed() string {
	return "Document edits applied!"
}

func (DocumentWriterConfirmationStrategy) OnStateRejected() string {
	return "No problem! What should I change about the document?"
}
