package events

import (
	"encoding/json"
	"fmt"
)

// SetGitOperationData sets the Data field with GitOperationData in a type-safe way.
func (e *Event) SetGitOperationData(data GitOperationData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert GitOperationData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetGitOperationData retrieves GitOperationData from the Data field.
func (e *Event) GetGitOperationData() (*GitOperationData, error) {
	var data GitOperationData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse GitOperationData: %w", err)
	}
	return &data, nil
}

// SetStateTransitionData sets the Data field with StateTransitionData in a type-safe way.
func (e *Event) SetStateTransitionData(data StateTransitionData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert StateTransitionData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetStateTransitionData retrieves StateTransitionData from the Data field.
func (e *Event) GetStateTransitionData() (*StateTransitionData, error) {
	var data StateTransitionData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse StateTransitionData: %w", err)
	}
	return &data, nil
}

// SetDuplicateCheckData sets the Data field with DuplicateCheckData in a type-safe way.
func (e *Event) SetDuplicateCheckData(data DuplicateCheckData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert DuplicateCheckData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetDuplicateCheckData retrieves DuplicateCheckData from the Data field.
func (e *Event) GetDuplicateCheckData() (*DuplicateCheckData, error) {
	var data DuplicateCheckData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse DuplicateCheckData: %w", err)
	}
	return &data, nil
}

// SetHistoryCleanupData sets the Data field with HistoryCleanupData in a type-safe way.
func (e *Event) SetHistoryCleanupData(data HistoryCleanupData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert HistoryCleanupData: %w", err)
	}
	e.Data = dataMap
	return nil
}

// structToMap converts a struct to map[string]interface{} using JSON marshaling.
func structToMap(data interface{}) (map[string]interface{}, error) {
	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// mapToStruct converts a map[string]interface{} to a struct using JSON unmarshaling.
func mapToStruct(dataMap map[string]interface{}, target interface{}) error {
	bytes, err := json.Marshal(dataMap)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, target)
}
