package oauth

// Prune returns a copy of m without nil entries, recursing into nested maps.
// Empty strings, false and zero values are kept.
func Prune(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case nil:
			continue
		case map[string]any:
			out[k] = Prune(val)
		case Profile:
			out[k] = Profile(Prune(val))
		case RawProfile:
			out[k] = RawProfile(Prune(val))
		default:
			out[k] = v
		}
	}
	return out
}
