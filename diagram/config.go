//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package diagram

// NodeConfig is the typed configuration of an executable node. The compiler's
// node factory phase is the single boundary that converts the untyped data
// dictionary of a DomainNode into one of the concrete config types below.
type NodeConfig interface {
	// NodeType reports which node type this config belongs to.
	NodeType() NodeType
}

// TriggerMode controls how a start node is triggered.
type TriggerMode string

const (
	// TriggerManual starts when the execution is launched directly.
	TriggerManual TriggerMode = "manual"
	// TriggerHook starts when an external hook fires.
	TriggerHook TriggerMode = "hook"
)

// StartConfig configures a start node.
type StartConfig struct {
	Trigger    TriggerMode    `json:"trigger_mode,omitempty"`
	CustomData map[string]any `json:"custom_data,omitempty"`
}

// NodeType implements NodeConfig.
func (StartConfig) NodeType() NodeType { return NodeTypeStart }

// EndpointConfig configures an endpoint node.
type EndpointConfig struct {
	SaveToFile bool   `json:"save_to_file,omitempty"`
	FilePath   string `json:"file_path,omitempty"`
}

// NodeType implements NodeConfig.
func (EndpointConfig) NodeType() NodeType { return NodeTypeEndpoint }

// PersonJobConfig configures a person job node. MaxIteration bounds how many
// times the node may fire within one execution; FirstPrompt is used on the
// first firing only.
type PersonJobConfig struct {
	Person        PersonID `json:"person"`
	FirstPrompt   string   `json:"first_only_prompt,omitempty"`
	DefaultPrompt string   `json:"default_prompt,omitempty"`
	MaxIteration  int      `json:"max_iteration,omitempty"`
	Tools         []string `json:"tools,omitempty"`
}

// NodeType implements NodeConfig.
func (PersonJobConfig) NodeType() NodeType { return NodeTypePersonJob }

// CodeLanguage names the evaluation backend of a code job.
type CodeLanguage string

const (
	// CodeLanguageExpr evaluates a CEL expression against the node inputs.
	CodeLanguageExpr CodeLanguage = "expr"
	// CodeLanguageShell runs a shell command.
	CodeLanguageShell CodeLanguage = "shell"
)

// CodeJobConfig configures a code job node.
type CodeJobConfig struct {
	Language CodeLanguage `json:"language"`
	Code     string       `json:"code"`
}

// NodeType implements NodeConfig.
func (CodeJobConfig) NodeType() NodeType { return NodeTypeCodeJob }

// APIJobConfig configures an HTTP API job node.
type APIJobConfig struct {
	URL        string            `json:"url"`
	Method     string            `json:"method,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       any               `json:"body,omitempty"`
	MaxRetries int               `json:"max_retries,omitempty"`
}

// NodeType implements NodeConfig.
func (APIJobConfig) NodeType() NodeType { return NodeTypeAPIJob }

// ConditionType selects how a condition node decides its branch.
type ConditionType string

const (
	// ConditionDetectMaxIterations loops until its iteration counter
	// reaches the configured maximum, then emits condfalse permanently.
	ConditionDetectMaxIterations ConditionType = "detect_max_iterations"
	// ConditionCheckNodesExecuted emits condtrue once every node in the
	// configured set has executed at least once.
	ConditionCheckNodesExecuted ConditionType = "check_nodes_executed"
	// ConditionCustom evaluates a CEL expression against execution
	// variables and inputs.
	ConditionCustom ConditionType = "custom"
)

// ConditionConfig configures a condition node.
type ConditionConfig struct {
	ConditionType ConditionType `json:"condition_type"`
	Expression    string        `json:"expression,omitempty"`
	NodeIDs       []NodeID      `json:"node_ids,omitempty"`
	MaxIterations int           `json:"max_iterations,omitempty"`
}

// NodeType implements NodeConfig.
func (ConditionConfig) NodeType() NodeType { return NodeTypeCondition }

// DBOperation names a db node operation.
type DBOperation string

const (
	// DBOperationRead reads one file or a glob of files.
	DBOperationRead DBOperation = "read"
	// DBOperationWrite replaces a file's contents.
	DBOperationWrite DBOperation = "write"
	// DBOperationAppend appends to a file.
	DBOperationAppend DBOperation = "append"
)

// DBConfig configures a db node. Path may be a doublestar glob for reads.
type DBConfig struct {
	Operation DBOperation `json:"operation"`
	Path      string      `json:"path"`
	Format    string      `json:"format,omitempty"`
}

// NodeType implements NodeConfig.
func (DBConfig) NodeType() NodeType { return NodeTypeDB }

// TemplateJobConfig configures a template rendering node.
type TemplateJobConfig struct {
	Template   string `json:"template,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
}

// NodeType implements NodeConfig.
func (TemplateJobConfig) NodeType() NodeType { return NodeTypeTemplateJob }

// HookKind selects the side-effect mechanism of a hook node.
type HookKind string

const (
	// HookShell runs a shell command.
	HookShell HookKind = "shell"
	// HookWebhook posts the inputs to a URL.
	HookWebhook HookKind = "webhook"
)

// HookConfig configures a hook node.
type HookConfig struct {
	Kind    HookKind `json:"hook_type"`
	Command string   `json:"command,omitempty"`
	URL     string   `json:"url,omitempty"`
}

// NodeType implements NodeConfig.
func (HookConfig) NodeType() NodeType { return NodeTypeHook }

// SubDiagramConfig configures a nested diagram node.
type SubDiagramConfig struct {
	Diagram DiagramID `json:"diagram_id"`
}

// NodeType implements NodeConfig.
func (SubDiagramConfig) NodeType() NodeType { return NodeTypeSubDiagram }

// UserResponseConfig configures an interactive prompt node. The wait bound
// comes from the node-level timeout field, like every other node.
type UserResponseConfig struct {
	Prompt string `json:"prompt"`
}

// NodeType implements NodeConfig.
func (UserResponseConfig) NodeType() NodeType { return NodeTypeUserResponse }
