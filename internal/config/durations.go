package config

import "gopkg.in/yaml.v3"

// UnmarshalYAML accepts duration strings ("300ms") and plain integers, which
// are read as milliseconds.
func (w *WatchConfig) UnmarshalYAML(n *yaml.Node) error {
	type plain WatchConfig
	millisToDuration(n, "debounce", "grace", "rebuild_interval")
	return n.Decode((*plain)(w))
}

// UnmarshalYAML accepts the timeout as a duration string or as milliseconds.
func (b *BuildConfig) UnmarshalYAML(n *yaml.Node) error {
	type plain BuildConfig
	millisToDuration(n, "timeout")
	return n.Decode((*plain)(b))
}

// millisToDuration rewrites integer values of the named mapping keys to
// millisecond duration strings.
func millisToDuration(n *yaml.Node, keys ...string) {
	if n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if val.Kind != yaml.ScalarNode || val.ShortTag() != "!!int" {
			continue
		}
		for _, k := range keys {
			if key.Value == k {
				val.Value += "ms"
				val.Tag = "!!str"
				break
			}
		}
	}
}
