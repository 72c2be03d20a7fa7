package main

// Returns true if the slice contains the element d
func contains(slice []string, d string) bool {
	for _, u := range slice {
		if u == d {
			return true
		}
	}

	return false
}
