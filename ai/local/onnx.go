// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package local

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/poiesic/marquee/ai"
)

// ONNXConfig locates an ONNX encoder and the runtime that executes it.
type ONNXConfig struct {
	// ModelPath is the .onnx file.
	ModelPath string

	// LibraryPath is the onnxruntime shared library. Empty uses the
	// platform default search path.
	LibraryPath string

	// IntraOpThreads bounds threads per session. Default: 1
	IntraOpThreads int
}

// The runtime environment is process-wide; models share it by reference count.
var (
	runtimeMu   sync.Mutex
	runtimeRefs int
)

func acquireRuntime(libraryPath string) error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if runtimeRefs == 0 {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}
	runtimeRefs++
	return nil
}

func releaseRuntime() error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if runtimeRefs == 0 {
		return nil
	}
	runtimeRefs--
	if runtimeRefs == 0 {
		return ort.DestroyEnvironment()
	}
	return nil
}

// Encoder input names. Token type ids are optional.
const (
	inputIDs      = "input_ids"
	attentionMask = "attention_mask"
	tokenTypeIDs  = "token_type_ids"
)

// onnxSession wraps one DynamicAdvancedSession. Inputs are bound by name in the
// order token ids, attention mask and, when the model declares it, token type ids.
type onnxSession struct {
	session   *ort.DynamicAdvancedSession
	numInputs int
}

// bindInputs picks the encoder inputs out of the names a model declares.
func bindInputs(declared []string) ([]string, error) {
	have := make(map[string]bool, len(declared))
	for _, name := range declared {
		have[name] = true
	}
	for _, required := range []string{inputIDs, attentionMask} {
		if !have[required] {
			return nil, fmt.Errorf("%w: %q (declares %v)", ErrModelInputs, required, declared)
		}
	}
	bound := []string{inputIDs, attentionMask}
	if have[tokenTypeIDs] {
		bound = append(bound, tokenTypeIDs)
	}
	return bound, nil
}

func onnxSessionFactory(cfg ONNXConfig) sessionFactory {
	return func() (session, error) {
		if err := acquireRuntime(cfg.LibraryPath); err != nil {
			return nil, err
		}
		s, err := newONNXSession(cfg)
		if err != nil {
			_ = releaseRuntime()
			return nil, err
		}
		return s, nil
	}
}

func newONNXSession(cfg ONNXConfig) (*onnxSession, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("read model io: %w", err)
	}
	if len(outputs) < 1 {
		return nil, fmt.Errorf("model %s declares no outputs", cfg.ModelPath)
	}
	declared := make([]string, len(inputs))
	for i := range inputs {
		declared[i] = inputs[i].Name
	}
	inputNames, err := bindInputs(declared)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", cfg.ModelPath, err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	defer options.Destroy()
	threads := cfg.IntraOpThreads
	if threads < 1 {
		threads = 1
	}
	if err := options.SetIntraOpNumThreads(threads); err != nil {
		return nil, fmt.Errorf("set intra-op threads: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputNames, []string{outputs[0].Name}, options)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &onnxSession{session: session, numInputs: len(inputNames)}, nil
}

func (s *onnxSession) run(ids, mask []int64) (ai.Tensor, error) {
	shape := ort.NewShape(1, int64(len(ids)))

	values := make([]ort.Value, 0, s.numInputs)
	defer func() {
		for _, v := range values {
			_ = v.Destroy()
		}
	}()

	idTensor, err := ort.NewTensor(shape, ids)
	if err != nil {
		return ai.Tensor{}, fmt.Errorf("input ids tensor: %w", err)
	}
	values = append(values, idTensor)

	maskTensor, err := ort.NewTensor(shape, mask)
	if err != nil {
		return ai.Tensor{}, fmt.Errorf("attention mask tensor: %w", err)
	}
	values = append(values, maskTensor)

	if s.numInputs == 3 {
		typeTensor, err := ort.NewTensor(shape, make([]int64, len(ids)))
		if err != nil {
			return ai.Tensor{}, fmt.Errorf("token type tensor: %w", err)
		}
		values = append(values, typeTensor)
	}

	outputs := []ort.Value{nil}
	if err := s.session.Run(values, outputs); err != nil {
		return ai.Tensor{}, fmt.Errorf("run session: %w", err)
	}
	defer outputs[0].Destroy()

	hidden, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return ai.Tensor{}, fmt.Errorf("%w: output is not a float32 tensor", ErrShape)
	}
	data := hidden.GetData()
	out := ai.Tensor{
		Shape: append([]int64(nil), hidden.GetShape()...),
		Data:  make([]float32, len(data)),
	}
	copy(out.Data, data)
	return out, nil
}

func (s *onnxSession) destroy() error {
	err := s.session.Destroy()
	if rerr := releaseRuntime(); err == nil {
		err = rerr
	}
	return err
}
