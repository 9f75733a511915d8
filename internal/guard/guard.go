// Package guard composes the pass/fail gate every request must clear before
// dispatch: shape validation, local risk screens, the language-model
// security audit, and task classification — in that fixed order. An unsafe
// verdict short-circuits classification so rejected requests never pay the
// classification cost.
package guard

import (
	"context"
	"log/slog"

	"github.com/jcs-corp/jcs-assistant/internal/config"
	"github.com/jcs-corp/jcs-assistant/internal/guard/injection"
	"github.com/jcs-corp/jcs-assistant/internal/guard/policy"
	"github.com/jcs-corp/jcs-assistant/internal/guard/secrets"
	"github.com/jcs-corp/jcs-assistant/internal/llm"
	"github.com/jcs-corp/jcs-assistant/internal/telemetry"
	"github.com/jcs-corp/jcs-assistant/internal/types"
)

const CodePolicyDenied ErrorCode = "policy_denied"

// Guard runs the full validation pipeline for one request.
type Guard struct {
	cfg        func() config.GuardConfig
	injection  *injection.Scanner
	secrets    *secrets.Scanner
	policy     *policy.Evaluator
	auditor    *Auditor
	classifier *Classifier
	metrics    *telemetry.Metrics
}

func New(cfg func() config.GuardConfig, pol *policy.Evaluator, client llm.Client, metrics *telemetry.Metrics) *Guard {
	return &Guard{
		cfg: cfg,
		injection: injection.NewScanner(func() config.InjectionFilterConfig {
			return cfg().Injection
		}),
		secrets:    secrets.NewScanner(),
		policy:     pol,
		auditor:    NewAuditor(client),
		classifier: NewClassifier(client),
		metrics:    metrics,
	}
}

// Validate gates a request. On success it returns the accepted task
// classification; on failure a *RequestError for user-input defects or a
// wrapped error for downstream capability failures.
//
// Ordering is fixed and load-bearing: the shape check and local screens run
// before any external call; the security audit runs before classification
// and an unsafe verdict stops the pipeline.
func (g *Guard) Validate(ctx context.Context, req *types.ChatRequest) (types.TaskClassification, error) {
	if rerr := ValidateShape(req); rerr != nil {
		g.record("shape", "reject")
		return types.TaskClassification{}, rerr
	}
	g.record("shape", "pass")

	if g.policy != nil {
		if allowed, reason := g.policy.Check(ctx, req); !allowed {
			g.record("policy", "reject")
			slog.Warn("request denied by policy",
				"request_id", req.RequestID,
				"org_id", req.OrganizationID,
				"reason", reason,
			)
			return types.TaskClassification{}, &RequestError{
				Code:    CodePolicyDenied,
				Message: "Request denied by organization policy: " + reason,
			}
		}
		g.record("policy", "pass")
	}

	if detections := g.secrets.Scan(req.Prompt); g.cfg().Secrets.Enabled && len(detections) > 0 {
		g.record("secrets", "reject")
		slog.Warn("credential material in prompt",
			"request_id", req.RequestID,
			"pattern", detections[0].PatternName,
			"detections", len(detections),
		)
		return types.TaskClassification{}, ErrSecurityRejected([]string{"credential_material"})
	}
	g.record("secrets", "pass")

	if blocked, categories, score := g.injection.Assess(req.Prompt); blocked {
		g.record("injection", "reject")
		slog.Warn("prompt blocked by local risk screen",
			"request_id", req.RequestID,
			"risk_flags", categories,
			"score", score,
		)
		return types.TaskClassification{}, ErrSecurityRejected(categories)
	}
	g.record("injection", "pass")

	assessment, err := g.auditor.Assess(ctx, req.Prompt)
	if err != nil {
		g.record("audit", "error")
		return types.TaskClassification{}, err
	}
	if !assessment.IsSafe {
		g.record("audit", "reject")
		return types.TaskClassification{}, ErrSecurityRejected(assessment.RiskFlags)
	}
	g.record("audit", "pass")

	cls, err := g.classifier.Classify(ctx, req.Prompt, req.TaskHint, req.FileNames())
	if err != nil {
		g.record("classify", "error")
		return types.TaskClassification{}, err
	}
	if cls.Category == types.TaskUnknown || cls.Confidence < g.cfg().ConfidenceThreshold {
		g.record("classify", "reject")
		return types.TaskClassification{}, ErrClassificationUnclear()
	}
	g.record("classify", "pass")

	return cls, nil
}

func (g *Guard) record(stage, action string) {
	if g.metrics != nil {
		g.metrics.RecordGuardAction(stage, action)
	}
}
