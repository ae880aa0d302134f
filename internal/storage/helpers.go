package storage

import "encoding/json"

func serializeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func deserializeList(data string) ([]string, error) {
	var items []string
	err := json.Unmarshal([]byte(data), &items)
	return items, err
}
