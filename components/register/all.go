// Package register registers all components
package register

import (
	// register components.
	_ "github.com/viam-modules/soilmoisture/components/board/fake"
	_ "github.com/viam-modules/soilmoisture/components/sensor/fake"
	_ "github.com/viam-modules/soilmoisture/components/sensor/soilmoisture"
)
