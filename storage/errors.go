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

package storage

import "errors"

// Errors returned by every Index and CheckpointStore implementation. Callers
// match them with errors.Is; implementations wrap them with the index name or
// the offending value.
var (
	ErrIndexMissing        = errors.New("index does not exist")
	ErrIndexExists         = errors.New("index already exists")
	ErrStorageClosed       = errors.New("storage is closed")
	ErrInvalidQuery        = errors.New("invalid query parameters")
	ErrSerializationFailed = errors.New("serialization failed")
)
