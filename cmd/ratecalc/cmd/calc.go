package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/go-rating/internal/cache"
	"github.com/cwbudde/go-rating/rating"
	"github.com/spf13/cobra"
)

var calcOutFile string

var calcCmd = &cobra.Command{
	Use:   "calc [request.json]",
	Short: "Evaluate a rating request",
	Long: `Evaluate a rating request and print the result as JSON.

The request file (or stdin, if no file is given) holds a JSON object:

  {
    "rateKey": "household-2026",
    "input": {
      "Wohnungswert": 300000,
      "Gut_checked": "N",
      "VS_Bargeld": {"1": 0, "2": 5000}
    },
    "formulas": {
      "Praemie_Gut": "if (Gut_checked == 'J') then return 0 else return 0 end",
      "double(n)": "return n * 2"
    },
    "outputs": [
      {"variable": "Wohnungspraemie", "sortOrder": 0, "formula": "return Praemie_Gut", "instanceId": "1"}
    ]
  }

Input entries keyed by an object (rather than a plain number/string/bool)
are bound as instance maps; every other entry is a scalar shared across
instances. Formula keys matching "name(params)" are registered as
user-defined functions; every other key is a plain lazy variable.

Host business functions are not expressed in the request: a calc run only
has access to the functions built into the formula language itself
(max, min, substr, addDays, ...). Embed rating.Engine directly when host
functions are required.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCalc,
}

func init() {
	rootCmd.AddCommand(calcCmd)
	calcCmd.Flags().StringVarP(&calcOutFile, "out", "o", "", "write the result JSON here instead of stdout")
}

type outputSpec struct {
	Variable   string `json:"variable"`
	SortOrder  int    `json:"sortOrder"`
	Formula    string `json:"formula"`
	InstanceID string `json:"instanceId,omitempty"`
}

type calcRequest struct {
	RateKey  string         `json:"rateKey"`
	Input    map[string]any `json:"input"`
	Formulas map[string]string `json:"formulas"`
	Outputs  []outputSpec   `json:"outputs"`
}

func runCalc(_ *cobra.Command, args []string) error {
	raw, err := readRequestSource(args)
	if err != nil {
		return err
	}

	var req calcRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("parse request: %w", err)
	}
	if req.RateKey == "" {
		req.RateKey = "cli"
	}

	input := make(rating.Map, len(req.Input))
	for name, v := range req.Input {
		if instances, ok := v.(map[string]any); ok {
			input[name] = rating.InstanceMap(instances)
			continue
		}
		input[name] = v
	}

	outputs := make([]rating.RatingOutput, len(req.Outputs))
	for i, o := range req.Outputs {
		outputs[i] = rating.RatingOutput{
			VariableName: o.Variable,
			SortOrder:    o.SortOrder,
			Formula:      o.Formula,
			InstanceID:   o.InstanceID,
		}
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "rateKey=%s inputs=%d formulas=%d outputs=%d\n",
			req.RateKey, len(input), len(req.Formulas), len(outputs))
	}

	engine := rating.NewEngine(nil, cache.NewDefaultFunctionResultCache(), cache.NewDefaultParseTreeCache())
	result, err := engine.Calculate(req.RateKey, input, req.Formulas, outputs)
	if err != nil {
		return fmt.Errorf("calculate: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	out = append(out, '\n')

	if calcOutFile != "" {
		return os.WriteFile(calcOutFile, out, 0o644)
	}
	_, err = os.Stdout.Write(out)
	return err
}

func readRequestSource(args []string) ([]byte, error) {
	if len(args) == 1 {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("read request file %s: %w", args[0], err)
		}
		return content, nil
	}
	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read request from stdin: %w", err)
	}
	return content, nil
}
