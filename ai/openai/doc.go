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

// Package openai provides AI service implementations using OpenAI-compatible APIs.
//
// This package implements the ai interfaces using the langchaingo library to
// communicate with OpenAI or OpenAI-compatible services (such as Ollama,
// vLLM or DeepSeek).
//
// Generator wraps a chat model. EntityExtractor and ResponseFuser are built on
// any ai.Generator and parse its replies defensively: code fences are
// stripped, small JSON defects are repaired, and anything still unusable is
// replaced by a safe default instead of an error.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434"),  // /v1 added automatically
//	    ai.WithGeneratorModel("qwen2.5:7b"),
//	)
//
//	provider, err := openai.NewProvider(config, openai.WithEmbedder(localEmbedder))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	extraction := provider.EntityExtractor().Extract(ctx, "周星驰的喜剧")
package openai
