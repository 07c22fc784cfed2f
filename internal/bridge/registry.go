package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"llmdesk/internal/app"
)

// Prefix qualifies bound method names the way the desktop runtime does
const Prefix = "main.App."

var (
	// ErrUnknownMethod is returned for names that were never bound
	ErrUnknownMethod = errors.New("unknown method")
	// ErrBadArguments is returned for wrong arity or undecodable arguments
	ErrBadArguments = errors.New("bad arguments")
)

// Invoker calls a bound method with positional JSON arguments
type Invoker func(args []json.RawMessage) (any, error)

type binding struct {
	arity  int
	invoke Invoker
}

// MethodInfo describes a bound method
type MethodInfo struct {
	Name  string `json:"name"`
	Arity int    `json:"arity"`
}

// Registry maps qualified method names to invokers
type Registry struct {
	methods map[string]binding
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{methods: make(map[string]binding)}
}

// Bind registers the nine App operations under main.App.<Operation>
func Bind(a *app.App) *Registry {
	r := NewRegistry()
	r.register("CreateCloudLLMModel", action1(a.CreateCloudLLMModel))
	r.register("DeleteCloudLLMModel", action1(a.DeleteCloudLLMModel))
	r.register("GetAppConfig", method0(a.GetAppConfig))
	r.register("GetCloudLLMModelByID", method1(a.GetCloudLLMModelByID))
	r.register("GetCloudLLMModels", method2(a.GetCloudLLMModels))
	r.register("GetSetting", method1(a.GetSetting))
	r.register("SetSetting", action2(a.SetSetting))
	r.register("ToggleCloudLLMModelEnabled", action2(a.ToggleCloudLLMModelEnabled))
	r.register("UpdateCloudLLMModel", action1(a.UpdateCloudLLMModel))
	return r
}

func (r *Registry) register(method string, b binding) {
	r.methods[Prefix+method] = b
}

// Register binds an invoker under a fully qualified name
func (r *Registry) Register(name string, arity int, invoke Invoker) {
	r.methods[name] = binding{arity: arity, invoke: invoke}
}

// Call dispatches a call. A nil args slice is treated as no arguments.
func (r *Registry) Call(name string, args []json.RawMessage) (any, error) {
	b, ok := r.methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
	}
	if len(args) != b.arity {
		return nil, fmt.Errorf("%w: %s expects %d argument(s), got %d", ErrBadArguments, name, b.arity, len(args))
	}
	return b.invoke(args)
}

// Has reports whether name is bound
func (r *Registry) Has(name string) bool {
	_, ok := r.methods[name]
	return ok
}

// Methods lists bound methods sorted by name
func (r *Registry) Methods() []MethodInfo {
	infos := make([]MethodInfo, 0, len(r.methods))
	for name, b := range r.methods {
		infos = append(infos, MethodInfo{Name: name, Arity: b.arity})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// ShortName strips Prefix for metric labels and logs
func ShortName(name string) string {
	return strings.TrimPrefix(name, Prefix)
}
