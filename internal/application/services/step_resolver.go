package services

import (
	"log"

	"github.com/docuflow/backend/internal/domain/models"
	"github.com/docuflow/backend/pkg/expression"
)

// StepResolver selects the next applicable step of a template by evaluating
// each subsequent step's optional condition against the instance context.
type StepResolver struct{}

// NewStepResolver creates a new StepResolver
func NewStepResolver() *StepResolver {
	return &StepResolver{}
}

// ResolveNext scans steps[currentIndex+1..] in order and returns the index
// of the first applicable step, or -1 when no further step qualifies
// (workflow completion). Pass currentIndex = -1 to resolve the first
// applicable step of a fresh instance.
//
// A step without a condition always matches. A step whose condition fails to
// parse is treated as a match (fail-open) and the parse error is logged:
// forward progress is preferred over strict branch selection, and templates
// are validated at registration time.
func (r *StepResolver) ResolveNext(steps []models.StepDefinition, currentIndex int, context map[string]interface{}) int {
	for i := currentIndex + 1; i < len(steps); i++ {
		step := &steps[i]

		if step.Condition == nil || *step.Condition == "" {
			return i
		}

		matched, err := expression.Evaluate(*step.Condition, context)
		if err != nil {
			log.Printf("⚠️ Step '%s' (index %d): condition parse failed, treating as matched: %v", step.Name, i, err)
			return i
		}
		if matched {
			return i
		}
	}

	return -1
}
