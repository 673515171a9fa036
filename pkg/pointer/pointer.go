package pointer

// String returns a pointer to the provided string value
func String(value string) *string {
	return &value
}

// StringOrDefault returns the pointer if not nil, otherwise the default value
func StringOrDefault(value *string, defaultValue string) *string {
	if value != nil {
		return value
	}
	return &defaultValue
}

// Uint64 returns a pointer to the provided uint64 value
func Uint64(value uint64) *uint64 {
	return &value
}

// Uint64OrDefault returns the pointer if not nil, otherwise the default value
func Uint64OrDefault(value *uint64, defaultValue uint64) *uint64 {
	if value != nil {
		return value
	}
	return &defaultValue
}

// Float64 returns a pointer to the provided float64 value
func Float64(value float64) *float64 {
	return &value
}

// Float64OrDefault returns the pointer if not nil, otherwise the default value
func Float64OrDefault(value *float64, defaultValue float64) *float64 {
	if value != nil {
		return value
	}
	return &defaultValue
}
