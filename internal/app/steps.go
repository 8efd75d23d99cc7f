package app

import (
	"context"
	"fmt"

	"github.com/vkazantsev/flowcore/internal/llm/modelconfig"
	"github.com/vkazantsev/flowcore/internal/llm/prompt"
	"github.com/vkazantsev/flowcore/internal/llm/provider"
	"github.com/vkazantsev/flowcore/internal/llm/provider/openai"
	"github.com/vkazantsev/flowcore/internal/pipectx"
	"github.com/vkazantsev/flowcore/internal/pipedecl"
	"github.com/vkazantsev/flowcore/internal/varset"
)

// Variables is the VariableSet the built-in chat completion pipeline
// is declared against, exported so a manifest's step blocks can reference
// these key names.
type Variables struct {
	Set            *varset.Set
	PromptTemplate varset.Key[string]
	PromptVars     varset.Key[map[string]any]
	Prompt         varset.Key[string]
	Profile        varset.Key[string]
	Completion     varset.Key[string]
}

// NewVariables declares the chat completion VariableSet: a rendered
// prompt and a model profile name go in to complete_chat, a completion
// comes out; render_prompt produces that prompt from a template source
// and a variable map, for manifests that chain the two steps together.
func NewVariables() *Variables {
	s := varset.New("chat_completion")
	v := &Variables{
		Set:            s,
		PromptTemplate: varset.Declare[string](s, "prompt_template", false),
		PromptVars:     varset.Declare[map[string]any](s, "prompt_vars", false),
		Prompt:         varset.Declare[string](s, "prompt", false),
		Profile:        varset.Declare[string](s, "profile", false),
		Completion:     varset.Declare[string](s, "completion", false),
	}
	s.WithShapes(
		varset.AnyOf(
			varset.All(varset.Required(v.Prompt), varset.Required(v.Profile)),
			varset.All(varset.Required(v.PromptTemplate), varset.Required(v.Profile)),
		),
		varset.AnyOf(varset.All(varset.Required(v.Completion))),
	)
	return v
}

// coreActions registers the Go action bodies a manifest's step blocks may
// reference by name: a fixed list of named, compiled-in handlers, one
// level removed from the graph shape a manifest or Go builder describes.
func coreActions(vars *Variables, models *modelconfig.File, providers *provider.Registry) *pipedecl.ActionRegistry {
	registry := pipedecl.NewActionRegistry()
	registry.Register("render_prompt", renderPromptAction(vars))
	registry.Register("complete_chat", completeChatAction(vars, models, providers))
	return registry
}

// renderPromptAction renders a Jinja2-style template source against a
// variable map, producing the text complete_chat consumes as its prompt.
func renderPromptAction(vars *Variables) func(context.Context, *pipectx.MutableView) error {
	return func(ctx context.Context, view *pipectx.MutableView) error {
		source, err := pipectx.ViewGet(view, vars.PromptTemplate)
		if err != nil {
			return err
		}
		templateVars, _, err := pipectx.ViewGetOrNull(view, vars.PromptVars)
		if err != nil {
			return err
		}

		tpl, err := prompt.LoadString("prompt", source)
		if err != nil {
			return fmt.Errorf("render_prompt: %w", err)
		}
		rendered, err := tpl.Render(templateVars)
		if err != nil {
			return fmt.Errorf("render_prompt: %w", err)
		}

		return pipectx.ViewSet(view, vars.Prompt, rendered)
	}
}

// completeChatAction looks up the requested model profile, builds a new
// provider adapter for it on every call, and runs a single synchronous
// completion.
func completeChatAction(vars *Variables, models *modelconfig.File, providers *provider.Registry) func(context.Context, *pipectx.MutableView) error {
	return func(ctx context.Context, view *pipectx.MutableView) error {
		promptText, err := pipectx.ViewGet(view, vars.Prompt)
		if err != nil {
			return err
		}
		profileName, err := pipectx.ViewGet(view, vars.Profile)
		if err != nil {
			return err
		}

		profile, err := models.Lookup(profileName)
		if err != nil {
			return err
		}

		completer, err := providers.Build(profile.Provider, provider.Config{})
		if err != nil {
			return err
		}

		resp, err := completer.Complete(ctx, provider.Request{
			Model:       profile.Model,
			Temperature: profile.Temperature,
			MaxTokens:   profile.MaxTokens,
			Messages:    []provider.Message{{Role: "user", Content: promptText}},
		})
		if err != nil {
			return fmt.Errorf("complete_chat: %w", err)
		}

		return pipectx.ViewSet(view, vars.Completion, resp.Content)
	}
}

// defaultProviders is the compiled-in provider.Registry: every provider
// adapter this binary knows how to construct, keyed by the tag a model
// profile names.
func defaultProviders(cfg *Config) *provider.Registry {
	registry := provider.NewRegistry()
	registry.Register("openai", func(_ provider.Config) (provider.ChatCompleter, error) {
		return openai.New(provider.Config{BaseURL: cfg.ProviderBaseURL, APIKey: cfg.ProviderAPIKey})
	})
	return registry
}
