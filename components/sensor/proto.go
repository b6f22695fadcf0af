package sensor

import (
	"github.com/pkg/errors"
	commonpb "go.viam.com/api/common/v1"
	"google.golang.org/protobuf/types/known/structpb"
)

// ReadingsToProto converts readings into protobuf values.
func ReadingsToProto(readings map[string]interface{}) (map[string]*structpb.Value, error) {
	m := make(map[string]*structpb.Value, len(readings))
	for k, v := range readings {
		vv, err := structpb.NewValue(v)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %q", k)
		}
		m[k] = vv
	}
	return m, nil
}

// ReadingsFromProto converts protobuf values back into readings. Numbers come back as float64.
func ReadingsFromProto(readings map[string]*structpb.Value) map[string]interface{} {
	m := make(map[string]interface{}, len(readings))
	for k, v := range readings {
		m[k] = v.AsInterface()
	}
	return m
}

// NewReadingsResponse wraps readings in a GetReadingsResponse.
func NewReadingsResponse(readings map[string]interface{}) (*commonpb.GetReadingsResponse, error) {
	values, err := ReadingsToProto(readings)
	if err != nil {
		return nil, err
	}
	return &commonpb.GetReadingsResponse{Readings: values}, nil
}

// StatusToProto converts a status structure into a protobuf Struct. A nil status yields an empty
// Struct.
func StatusToProto(status map[string]interface{}) (*structpb.Struct, error) {
	if status == nil {
		return &structpb.Struct{Fields: map[string]*structpb.Value{}}, nil
	}
	return structpb.NewStruct(status)
}
