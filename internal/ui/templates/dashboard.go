package templates

import (
	"fmt"

	"rfm-segmentation/internal/models"
)

func referenceDate(info models.RunInfo) string {
	return info.ReferenceDate.Format("2006-01-02 15:04")
}

func clusterLine(info models.RunInfo) string {
	line := fmt.Sprintf("%d clusters, inertia %.2f after %d iterations", info.ClusterCount, info.Inertia, info.Iterations)
	if !info.Converged {
		line += " (did not converge)"
	}
	return line
}
