package logging

func logParamsToZapParams(keys map[ExtraKey]any) []any {
	params := make([]any, 0, len(keys)*2)

	for k, v := range keys {
		params = append(params, string(k))
		params = append(params, v)
	}

	return params
}

func logParamsToZeroParams(keys map[ExtraKey]any) map[string]any {
	params := map[string]any{}

	for k, v := range keys {
		params[string(k)] = v
	}

	return params
}

func prepareLogInfo(cat Category, sub SubCategory, extra map[ExtraKey]any) map[ExtraKey]any {
	params := make(map[ExtraKey]any, len(extra)+2)
	for k, v := range extra {
		params[k] = v
	}
	params["Category"] = cat
	params["SubCategory"] = sub
	return params
}
