package hosting

import "webharness/webharnesserr"

func errMissingBaseURL(field string) error {
	return &webharnesserr.InvalidConfigurationError{Field: field, Reason: "base_url is required"}
}

func errMissingProjectPath(field string) error {
	return &webharnesserr.InvalidConfigurationError{Field: field, Reason: "project_path is required"}
}

func errMissingEntryPoint(field string) error {
	return &webharnesserr.InvalidConfigurationError{Field: field, Reason: "entry_point_reference is required"}
}

// mergeEnv applies overrides onto a copy of defaults, last-write-wins.
func mergeEnv(defaults, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
