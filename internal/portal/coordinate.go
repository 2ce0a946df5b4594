package portal

import (
	"net/url"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/rileyhilliard/portalctl/internal/errors"
)

// Coordinate identifies a cluster by (subscription, resourceGroup, name).
type Coordinate struct {
	Subscription  string
	ResourceGroup string
	Name          string
}

// IsZero reports whether any part of the coordinate is missing.
func (c Coordinate) IsZero() bool {
	return c.Subscription == "" || c.ResourceGroup == "" || c.Name == ""
}

// APIPath is the portal API path for the cluster, e.g. /api/sub/rg/name.
func (c Coordinate) APIPath() string {
	return "/api/" + url.PathEscape(c.Subscription) + "/" + url.PathEscape(c.ResourceGroup) + "/" + url.PathEscape(c.Name)
}

// ParseCoordinate splits an ARM resource ID into a coordinate.
func ParseCoordinate(resourceID string) (Coordinate, error) {
	id, err := arm.ParseResourceID(resourceID)
	if err != nil {
		return Coordinate{}, errors.WrapWithCode(err, errors.ErrNotFound,
			"'"+resourceID+"' isn't a valid resource ID",
			"Use the full ID, e.g. /subscriptions/<sub>/resourceGroups/<rg>/providers/Microsoft.RedHatOpenShift/openShiftClusters/<name>")
	}
	c := Coordinate{Subscription: id.SubscriptionID, ResourceGroup: id.ResourceGroupName, Name: id.Name}
	if c.IsZero() {
		return Coordinate{}, errors.New(errors.ErrNotFound,
			"'"+resourceID+"' doesn't name a cluster",
			"The ID must include a subscription, resource group and cluster name")
	}
	return c, nil
}

// FindCluster resolves ref against clusters. ref may be a resource ID (case
// insensitive, as ARM IDs are) or a cluster name when unique.
func FindCluster(clusters []Cluster, ref string) (Cluster, error) {
	for _, c := range clusters {
		if strings.EqualFold(c.ResourceID, ref) {
			return c, nil
		}
	}

	var matches []Cluster
	for _, c := range clusters {
		if c.Name == ref {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return Cluster{}, errors.New(errors.ErrNotFound,
			"Resource Not Found: no cluster matches '"+ref+"'",
			"Run 'portalctl clusters' to list the clusters you can see")
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.ResourceID
		}
		sort.Strings(ids)
		return Cluster{}, errors.New(errors.ErrNotFound,
			"More than one cluster is named '"+ref+"'",
			"Use the resource ID instead:\n    "+strings.Join(ids, "\n    "))
	}
}
