package data

import (
	"io"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	v1 "go.viam.com/api/app/datasync/v1"
	"google.golang.org/protobuf/types/known/structpb"
)

// SensorDataToBSON converts a tabular record into a document shaped for a tabular data
// collection. Times are stored as BSON dates.
func SensorDataToBSON(md *v1.DataCaptureMetadata, sd *v1.SensorData) (bson.M, error) {
	if sd.GetStruct() == nil {
		return nil, errors.New("sensor data has no struct payload")
	}
	payload, err := pbStructToBSON(sd.GetStruct())
	if err != nil {
		return nil, err
	}
	return bson.M{
		"component_name": md.GetComponentName(),
		"component_type": md.GetComponentType(),
		"method_name":    md.GetMethodName(),
		"time_requested": sd.GetMetadata().GetTimeRequested().AsTime(),
		"time_received":  sd.GetMetadata().GetTimeReceived().AsTime(),
		"data":           payload,
	}, nil
}

// WriteBSON writes one BSON document per record to w and returns how many were written.
func WriteBSON(w io.Writer, md *v1.DataCaptureMetadata, data []*v1.SensorData) (int, error) {
	for i, sd := range data {
		doc, err := SensorDataToBSON(md, sd)
		if err != nil {
			return i, errors.Wrapf(err, "record %d", i)
		}
		raw, err := bson.Marshal(doc)
		if err != nil {
			return i, errors.Wrapf(err, "record %d", i)
		}
		if _, err := w.Write(raw); err != nil {
			return i, err
		}
	}
	return len(data), nil
}

// ReadBSON reads back documents written by WriteBSON.
func ReadBSON(r io.Reader) ([]bson.Raw, error) {
	var docs []bson.Raw
	for {
		raw, err := bson.NewFromIOReader(r)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read document %d", len(docs))
		}
		docs = append(docs, raw)
	}
}

// pbStructToBSON converts a structpb.Struct to a bson.M.
func pbStructToBSON(s *structpb.Struct) (bson.M, error) {
	bsonMap := make(bson.M, len(s.GetFields()))
	for k, v := range s.GetFields() {
		bsonValue, err := pbValueToBSON(v)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", k)
		}
		bsonMap[k] = bsonValue
	}
	return bsonMap, nil
}

func pbValueToBSON(v *structpb.Value) (interface{}, error) {
	switch v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_NumberValue:
		return v.GetNumberValue(), nil
	case *structpb.Value_StringValue:
		return v.GetStringValue(), nil
	case *structpb.Value_BoolValue:
		return v.GetBoolValue(), nil
	case *structpb.Value_StructValue:
		return pbStructToBSON(v.GetStructValue())
	case *structpb.Value_ListValue:
		var slice bson.A
		for _, item := range v.GetListValue().GetValues() {
			bsonValue, err := pbValueToBSON(item)
			if err != nil {
				return nil, err
			}
			slice = append(slice, bsonValue)
		}
		return slice, nil
	default:
		return nil, errors.Errorf("unsupported value type: %T", v.GetKind())
	}
}
