// Copyright 2025 walteh LLC
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

package export

// 📣 Reporter receives batch progress
type Reporter interface {
	// Start begins a batch of total pages
	Start(title string, total int)
	// PageDone reports an exported or ignored page
	PageDone(result *PageResult)
	// PageFailed reports a page that could not be exported
	PageFailed(id string, err error)
	// Stop ends the batch
	Stop(summary *Summary)
}

// NopReporter discards all progress
type NopReporter struct{}

func (NopReporter) Start(string, int) {
}

func (NopReporter) PageDone(*PageResult) {
}

func (NopReporter) PageFailed(string, error) {
}

func (NopReporter) Stop(*Summary) {
}
