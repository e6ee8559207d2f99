package util

func StringPtr(v string) *string { return &v }

func FloatPtr(v float64) *float64 { return &v }
