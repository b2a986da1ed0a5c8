// Package jsscript provides the py step: it runs a JavaScript snippet taken from the
// pipeline context using the Goja engine.
//
// Two input keys select the mode:
//
//	py:     context entries are visible by bare name. Anything the script binds stays
//	        in a scratch scope and is discarded, unless published with save().
//	pycode: only the `context` handle is visible; the script reads and writes the
//	        pipeline context through it directly.
//
// When both keys are present pycode wins.
//
// let and const at the top level of a py script are block scoped and do not reach the
// scratch scope, so save('x') cannot see them. Publish them with save({x: x}).
// For the same reason a py script may not open with a 'use strict' directive; the
// step fails with StrictModeError before running it. pycode scripts may use it.
package jsscript

import (
	"context"
	"fmt"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"yqhp/pipeline-engine/internal/pipecontext"
	"yqhp/pipeline-engine/internal/step"
	"yqhp/pipeline-engine/pkg/logger"
)

const (
	// KeyPy holds a script that sees context entries by bare name.
	KeyPy = "py"
	// KeyPyCode holds a script that sees the context only through the handle.
	KeyPyCode = "pycode"

	// SaveName is the reserved scratch name of the save bridge.
	SaveName = "save"
	// HandleName is the global name of the context handle in pycode mode.
	HandleName = "context"
)

// ScriptTypeError is returned when the script key does not hold a string.
type ScriptTypeError struct {
	Key  string
	Type string
}

// Error implements the error interface.
func (e *ScriptTypeError) Error() string {
	return fmt.Sprintf("context['%s'] must be a string of script source, got %s", e.Key, e.Type)
}

// Py creates the py step.
func Py(log *logger.Logger) step.Step {
	if log == nil {
		log = logger.NewNop()
	}
	return &pyStep{
		BaseStep: step.NewBaseStep("py", "Executes a JavaScript snippet against the pipeline context"),
		log:      log.Named("steps.py"),
	}
}

type pyStep struct {
	step.BaseStep
	log *logger.Logger
}

// Run selects the mode and executes the script. Script errors are returned as the
// runtime raised them.
func (s *pyStep) Run(_ context.Context, pctx *pipecontext.Context) error {
	s.log.Debug("started")

	var err error
	if pctx.Has(KeyPyCode) {
		err = s.execPyCode(pctx)
	} else {
		if err := pctx.AssertKeyHasValue(KeyPy, s.Caller()); err != nil {
			return err
		}
		err = s.execPy(pctx)
	}
	if err != nil {
		return err
	}

	s.log.Debug("done")
	return nil
}

// execPy runs the script with the layered namespace as its global object.
func (s *pyStep) execPy(pctx *pipecontext.Context) error {
	src, err := scriptSource(pctx, KeyPy)
	if err != nil {
		return err
	}
	if hasStrictDirective(src) {
		return &StrictModeError{Key: KeyPy}
	}

	vm := goja.New()
	if err := setupConsole(vm, s.log); err != nil {
		return fmt.Errorf("failed to setup JS environment: %w", err)
	}

	// 全局 eval 在替换全局对象之前取出，内置对象作为原型保留
	evalFn, ok := goja.AssertFunction(vm.Get("eval"))
	if !ok {
		return fmt.Errorf("failed to setup JS environment: eval is not callable")
	}
	builtins := vm.GlobalObject()

	ns := newNamespace(vm, pctx)
	ns.Assign(SaveName, vm.ToValue(newSave(vm, ns, pctx)))

	global := vm.NewDynamicObject(ns)
	if err := global.SetPrototype(builtins); err != nil {
		return fmt.Errorf("failed to setup JS environment: %w", err)
	}
	vm.SetGlobalObject(global)

	s.log.Debug("executing py script", zap.Int("length", len(src)))

	// indirect eval binds top-level var and function declarations as deletable
	// properties of the global object, which a dynamic object accepts
	_, err = evalFn(goja.Undefined(), vm.ToValue(src))
	return err
}

// execPyCode runs the script in a fresh runtime whose only custom binding is the
// context handle.
func (s *pyStep) execPyCode(pctx *pipecontext.Context) error {
	if err := pctx.AssertKeyHasValue(KeyPyCode, s.Caller()); err != nil {
		return err
	}
	src, err := scriptSource(pctx, KeyPyCode)
	if err != nil {
		return err
	}

	vm := goja.New()
	if err := setupConsole(vm, s.log); err != nil {
		return fmt.Errorf("failed to setup JS environment: %w", err)
	}
	if err := vm.Set(HandleName, newContextHandle(vm, pctx)); err != nil {
		return fmt.Errorf("failed to setup JS environment: %w", err)
	}

	s.log.Debug("executing pycode script", zap.String("source", src))

	_, err = vm.RunString(src)
	return err
}

func scriptSource(pctx *pipecontext.Context, key string) (string, error) {
	val, _ := pctx.Get(key)
	src, ok := val.(string)
	if !ok {
		return "", &ScriptTypeError{Key: key, Type: fmt.Sprintf("%T", val)}
	}
	return src, nil
}
