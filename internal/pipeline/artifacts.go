package pipeline

import (
	"github.com/tidwall/gjson"

	"github.com/sells-group/enrich-cli/internal/model"
)

// artifactPaths are the known locations of generated output files inside an
// agent response envelope, probed in order.
var artifactPaths = []string{"outputs.files", "response.outputs.files"}

// LocateArtifacts returns the first non-empty artifact-file array found in
// the response envelope, or failing that inside an independent decode of the
// raw response string. Decode failures are swallowed; an empty result is a
// normal outcome.
func LocateArtifacts(envelope []byte, rawResponse string) []model.ArtifactFile {
	if len(envelope) > 0 && gjson.ValidBytes(envelope) {
		if files := probeArtifactPaths(gjson.ParseBytes(envelope)); len(files) > 0 {
			return files
		}
	}

	if rawResponse != "" {
		cleaned := cleanJSON(rawResponse)
		if gjson.Valid(cleaned) {
			if files := probeArtifactPaths(gjson.Parse(cleaned)); len(files) > 0 {
				return files
			}
		}
	}

	return nil
}

func probeArtifactPaths(root gjson.Result) []model.ArtifactFile {
	for _, path := range artifactPaths {
		arr := root.Get(path)
		if !arr.IsArray() {
			continue
		}
		var files []model.ArtifactFile
		for _, item := range arr.Array() {
			files = append(files, model.ArtifactFile{
				FileURL:    item.Get("file_url").String(),
				Name:       item.Get("name").String(),
				FormatType: item.Get("format_type").String(),
			})
		}
		if len(files) > 0 {
			return files
		}
	}
	return nil
}
