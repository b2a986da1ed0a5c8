package jsscript

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"yqhp/pipeline-engine/pkg/logger"
)

// setupConsole installs a console object that writes through the engine logger.
// console.log is user-facing output and logs at NOTIFY, like the echo step.
func setupConsole(vm *goja.Runtime, log *logger.Logger) error {
	console := vm.NewObject()

	logFn := func(emit func(string, ...zap.Field)) func(call goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			args := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				args[i] = fmt.Sprintf("%v", arg.Export())
			}
			emit(strings.Join(args, " "), zap.String("source", "console"))
			return goja.Undefined()
		}
	}

	for name, emit := range map[string]func(string, ...zap.Field){
		"log":   log.Notify,
		"info":  log.Info,
		"debug": log.Debug,
		"warn":  log.Warn,
		"error": log.Error,
	} {
		if err := console.Set(name, logFn(emit)); err != nil {
			return err
		}
	}

	return vm.Set("console", console)
}
