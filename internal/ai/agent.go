package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

// ReviewFinding is the model's assessment of one divergence.
type ReviewFinding struct {
	AccountCode     string  `json:"account_code" jsonschema_description:"The supplier account code this finding refers to"`
	Kind            string  `json:"kind" jsonschema_description:"The divergence kind being assessed (BALANCE_MISMATCH, UNMATCHED_PAYMENT, NEGATIVE_ALLOCATION, OTHER)"`
	LikelyCause     string  `json:"likely_cause" jsonschema_description:"The most plausible bookkeeping explanation for the discrepancy"`
	SuggestedAction string  `json:"suggested_action" jsonschema_description:"A concrete next step for the accountant reviewing this supplier"`
	Confidence      float64 `json:"confidence" jsonschema_description:"Confidence score between 0.0 and 1.0"`
}

// DivergenceReview is the AI-generated review of a statement's divergences.
type DivergenceReview struct {
	Summary  string          `json:"summary" jsonschema_description:"A brief overall assessment of the statement's data quality"`
	Findings []ReviewFinding `json:"findings" jsonschema_description:"One finding per divergence, in the order given"`
}

type AgentService interface {
	ReviewDivergences(ctx context.Context, divergencesJSON string) (*DivergenceReview, error)
}

type Agent struct {
	client *openai.Client
}

func NewAgent(apiKey string) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Agent{client: &client}
}

// ReviewDivergences asks the model to explain each reconciliation
// divergence and suggest a follow-up. divergencesJSON is the serialized
// list of suppliers with their figures and divergences.
func (a *Agent) ReviewDivergences(ctx context.Context, divergencesJSON string) (*DivergenceReview, error) {
	prompt := fmt.Sprintf(`You are an expert accounts-payable auditor.
You are given reconciliation divergences found in a supplier ledger statement:
inconsistencies between the document's own stated figures and figures recomputed
independently from its entries.
Rules:
1. Produce exactly one finding per divergence, in the order given.
2. likely_cause must name a concrete bookkeeping scenario (late posting, missing
   invoice page, payment booked against the wrong supplier, OCR artifact, etc.).
3. suggested_action must be a single actionable step.
4. Provide a confidence score (0.0-1.0) per finding.

Divergences:
%s`, divergencesJSON)

	// Dynamically generate the JSON schema from the Go struct
	schemaStruct := generateSchema()
	schemaJSON, err := json.Marshal(schemaStruct)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "divergence_review",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("A review of supplier ledger reconciliation divergences"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var review DivergenceReview
	if err := json.Unmarshal([]byte(content), &review); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}
	return &review, nil
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v DivergenceReview
	return reflector.Reflect(v)
}
