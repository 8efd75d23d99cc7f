package pipedecl

// fileRoot is decoded from every HCL file in a manifest's paths; the
// pipeline blocks of all files are collected into one list, and each block
// is built into its own Pipeline.
type fileRoot struct {
	Pipelines []*pipelineDecl `hcl:"pipeline,block"`
}

type pipelineDecl struct {
	ID          string      `hcl:"id,label"`
	RetryPolicy *retryDecl  `hcl:"retry_policy,block"`
	Steps       []*stepDecl `hcl:"step,block"`
}

type retryDecl struct {
	MaxAttempts       int     `hcl:"max_attempts"`
	InitialDelayMs    int     `hcl:"initial_delay_ms"`
	BackoffMultiplier float64 `hcl:"backoff_multiplier,optional"`
}

type stepDecl struct {
	Name     string   `hcl:"name,label"`
	Action   string   `hcl:"action"`
	Consumes []string `hcl:"consumes,optional"`
	Produces []string `hcl:"produces,optional"`
}
