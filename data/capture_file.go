package data

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
	v1 "go.viam.com/api/app/datasync/v1"
	"google.golang.org/protobuf/encoding/protodelim"

	"github.com/viam-modules/soilmoisture/components/sensor"
)

// CompletedCaptureFileExt is the file extension for finished capture files.
const CompletedCaptureFileExt = ".capture"

// ReadCaptureFile reads a capture written by a Collector: the metadata record followed by every
// reading.
func ReadCaptureFile(r io.Reader) (*v1.DataCaptureMetadata, []*v1.SensorData, error) {
	br := bufio.NewReader(r)
	md := &v1.DataCaptureMetadata{}
	if err := protodelim.UnmarshalFrom(br, md); err != nil {
		return nil, nil, errors.Wrap(err, "failed to read DataCaptureMetadata")
	}

	var data []*v1.SensorData
	for {
		next := &v1.SensorData{}
		err := protodelim.UnmarshalFrom(br, next)
		if errors.Is(err, io.EOF) {
			return md, data, nil
		}
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to read reading %d", len(data))
		}
		data = append(data, next)
	}
}

// ReadCaptureFilePath opens and reads the capture file at path.
func ReadCaptureFilePath(path string) (*v1.DataCaptureMetadata, []*v1.SensorData, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return ReadCaptureFile(f)
}

// ReadingsFromSensorData returns the readings stored in a tabular record.
func ReadingsFromSensorData(sd *v1.SensorData) (map[string]interface{}, error) {
	readings := sd.GetStruct().GetFields()["readings"].GetStructValue()
	if readings == nil {
		return nil, errors.New("sensor data has no readings")
	}
	return sensor.ReadingsFromProto(readings.GetFields()), nil
}
