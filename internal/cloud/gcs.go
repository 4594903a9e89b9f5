// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cloud

import (
	"path"
	"strings"
)

// GCSObjectParam is the chain context key under which the object being
// processed is stored.
const GCSObjectParam = "__GCS__OBJ__"

// PromptObjectSuffix is appended to a source object name to name its prompt.
const PromptObjectSuffix = ".prompt.txt"

// GCSPubSubNotification is the JSON payload of a Cloud Storage object
// notification.
type GCSPubSubNotification struct {
	Kind        string         `json:"kind"`
	ID          string         `json:"id"`
	SelfLink    string         `json:"selfLink"`
	Name        string         `json:"name"`
	Bucket      string         `json:"bucket"`
	Generation  string         `json:"generation"`
	ContentType string         `json:"contentType"`
	TimeCreated string         `json:"timeCreated"`
	Updated     string         `json:"updated"`
	Size        string         `json:"size"`
	MD5Hash     string         `json:"md5Hash"`
	MediaLink   string         `json:"mediaLink"`
	MetaData    map[string]any `json:"metadata"`
	Crc32c      string         `json:"crc32c"`
	ETag        string         `json:"etag"`
}

// GCSObject identifies an object passed between commands.
type GCSObject struct {
	Bucket   string
	Name     string
	MIMEType string
}

// URI returns the gs:// address of the object.
func (o *GCSObject) URI() string {
	return "gs://" + o.Bucket + "/" + o.Name
}

// PromptObjectName maps a source object name to the name of its rendered
// prompt. Directories are kept and any extension on the base name is dropped.
func PromptObjectName(source string) string {
	dir, file := path.Split(source)
	file = strings.TrimSuffix(file, path.Ext(file))
	return dir + file + PromptObjectSuffix
}
