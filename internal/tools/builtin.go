package tools

// RegisterBuiltinTools registers all builtin tools to a registry. read_api is
// only available when a completer is given.
func RegisterBuiltinTools(registry *Registry, ws *Workspace, cache *APICache, completer Completer) {
	registry.Register(&ReadFileTool{workspace: ws})
	registry.Register(&WriteFileTool{workspace: ws, cache: cache})
	registry.Register(&PatchFileTool{workspace: ws, cache: cache})
	registry.Register(&ListFilesTool{workspace: ws})
	registry.Register(&FindFileTool{workspace: ws})
	registry.Register(&GrepTool{workspace: ws})
	registry.Register(&GitGrepTool{workspace: ws})
	registry.Register(&ShellTool{workspace: ws})
	registry.Register(&SleepTool{})
	registry.Register(&CurrentTimeTool{})
	if completer != nil {
		registry.Register(&ReadAPITool{workspace: ws, cache: cache, completer: completer})
	}
}
