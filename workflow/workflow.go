package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// LLM is the interface for language model completion calls
type LLM interface {
	// Complete generates a completion for the given prompt
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAIClient is an LLM backed by an OpenAI-compatible API
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAI-backed LLM
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Complete generates a completion for the given prompt
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}

	return resp.Choices[0].Message.Content, nil
}

// inputPlaceholder marks where the previous step's output is spliced into a
// step prompt
const inputPlaceholder = "{{input}}"

// Step is a single unit of LLM work in a workflow
type Step struct {
	// Name identifies the step in results
	Name string

	// Prompt is the step prompt; any {{input}} occurrence is replaced with
	// the previous step's output (sequences) or the shared input (parallel)
	Prompt string
}

// StepResult holds the output of one executed step
type StepResult struct {
	Name   string
	Output string
}

// Engine sequences and parallelizes LLM calls
type Engine struct {
	llm LLM
}

// NewEngine creates a workflow engine around an LLM
func NewEngine(llm LLM) *Engine {
	return &Engine{llm: llm}
}

// RunSequence executes steps in order, feeding each step's output into the
// next step's {{input}} placeholder. The first error aborts the sequence.
func (e *Engine) RunSequence(ctx context.Context, input string, steps []Step) ([]StepResult, error) {
	results := make([]StepResult, 0, len(steps))
	current := input

	for _, step := range steps {
		prompt := strings.ReplaceAll(step.Prompt, inputPlaceholder, current)

		output, err := e.llm.Complete(ctx, prompt)
		if err != nil {
			return results, fmt.Errorf("step %q: %w", step.Name, err)
		}

		results = append(results, StepResult{Name: step.Name, Output: output})
		current = output
	}

	return results, nil
}

// RunParallel executes all steps concurrently against the same input.
// Results preserve step order; the first error observed is returned.
func (e *Engine) RunParallel(ctx context.Context, input string, steps []Step) ([]StepResult, error) {
	results := make([]StepResult, len(steps))
	errs := make([]error, len(steps))

	var wg sync.WaitGroup
	for i, step := range steps {
		wg.Add(1)
		go func(i int, step Step) {
			defer wg.Done()

			prompt := strings.ReplaceAll(step.Prompt, inputPlaceholder, input)
			output, err := e.llm.Complete(ctx, prompt)
			if err != nil {
				errs[i] = fmt.Errorf("step %q: %w", step.Name, err)
				return
			}
			results[i] = StepResult{Name: step.Name, Output: output}
		}(i, step)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
