package managers

import (
	"fmt"

	"github.com/chrissnell/tankwatch/internal/sources"
	"github.com/chrissnell/tankwatch/internal/sources/file"
	"github.com/chrissnell/tankwatch/internal/sources/remote"
	"github.com/chrissnell/tankwatch/pkg/config"
	"go.uber.org/zap"
)

// NewLoader builds the sensor data loader selected by the source configuration
func NewLoader(sc config.SourceData, logger *zap.SugaredLogger) (sources.Loader, error) {
	switch sc.Type {
	case config.SourceFile, "":
		logger.Infof("Initializing file source [%v]", sc.Path)
		return file.NewLoader(sc.Path, logger), nil
	case config.SourceRemote:
		logger.Infof("Initializing remote source [%v] for product %v", sc.BaseURL, sc.ProductID)
		return remote.NewLoader(remote.Options{
			BaseURL:   sc.BaseURL,
			ProductID: sc.ProductID,
			Token:     sc.Token,
			UserAgent: sc.UserAgent,
		}, nil, logger), nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", sc.Type)
	}
}
