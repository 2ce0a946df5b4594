package portal

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Field is one labelled value in a detail projection. Values may be empty;
// renderers substitute a placeholder.
type Field struct {
	Label string
	Value string
}

// Info is the session bootstrap returned by /api/info.
type Info struct {
	Location string `json:"location"`
	CSRF     string `json:"csrf"`
	Elevated bool   `json:"elevated"`
	Username string `json:"username"`
}

// Cluster is one row of /api/clusters.
type Cluster struct {
	Key                     string `json:"key"`
	Name                    string `json:"name"`
	Subscription            string `json:"subscription"`
	ResourceGroup           string `json:"resourceGroup"`
	ResourceID              string `json:"resourceId"`
	Version                 string `json:"version"`
	ProvisioningState       string `json:"provisioningState"`
	FailedProvisioningState string `json:"failedProvisioningState"`
	CreatedAt               string `json:"createdAt"`
	LastModified            string `json:"lastModified"`
	ProvisionedBy           string `json:"provisionedBy"`
	ConsoleLink             string `json:"consoleLink"`
}

// Coordinate returns the cluster's (subscription, resourceGroup, name).
func (c Cluster) Coordinate() Coordinate {
	return Coordinate{Subscription: c.Subscription, ResourceGroup: c.ResourceGroup, Name: c.Name}
}

// Locate is the coordinate every per-cluster call is addressed by. The
// listed fields win; resourceId is only parsed when one of them is blank.
func (c Cluster) Locate() (Coordinate, error) {
	if co := c.Coordinate(); !co.IsZero() {
		return co, nil
	}
	return ParseCoordinate(c.ResourceID)
}

// State renders the provisioning state, appending the failed state when set.
func (c Cluster) State() string {
	if c.FailedProvisioningState != "" {
		return c.ProvisioningState + " - " + c.FailedProvisioningState
	}
	return c.ProvisioningState
}

// PrometheusPath is the portal path of the cluster's Prometheus UI. Clusters
// from 4.11 on serve it at the root; older ones under /graph.
func (c Cluster) PrometheusPath() string {
	if VersionAtLeast(c.Version, 4, 11) {
		return c.ResourceID + "/prometheus"
	}
	return c.ResourceID + "/prometheus/graph"
}

// VersionAtLeast reports whether a dotted version is >= major.minor.
// Unparseable versions compare as older.
func VersionAtLeast(version string, major, minor int) bool {
	parts := strings.SplitN(strings.TrimPrefix(version, "v"), ".", 3)
	if len(parts) < 2 {
		return false
	}
	maj, err := strconv.Atoi(parts[0])
	if err != nil {
		return false
	}
	mnr, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}
	if maj != major {
		return maj > major
	}
	return mnr >= minor
}

// ClusterDetail is the expanded record from /api/{sub}/{rg}/{name}.
type ClusterDetail struct {
	Name                    string `json:"name"`
	ResourceID              string `json:"resourceId"`
	Subscription            string `json:"subscription"`
	ResourceGroup           string `json:"resourceGroup"`
	Location                string `json:"location"`
	Version                 string `json:"version"`
	ProvisioningState       string `json:"provisioningState"`
	FailedProvisioningState string `json:"failedProvisioningState"`
	LastProvisioningState   string `json:"lastProvisioningState"`
	InstallStatus           string `json:"installStatus"`
	ArchitectureVersion     string `json:"architectureVersion"`
	InfraID                 string `json:"infraId"`
	APIServerVisibility     string `json:"apiServerVisibility"`
	APIServerURL            string `json:"apiServerURL"`
	APIServerIP             string `json:"apiServerIP"`
	ConsoleLink             string `json:"consoleLink"`
	ProvisionedBy           string `json:"provisionedBy"`
	CreatedAt               string `json:"createdAt"`
	CreatedBy               string `json:"createdBy"`
	LastModifiedAt          string `json:"lastModifiedAt"`
	LastModifiedBy          string `json:"lastModifiedBy"`
	LastAdminUpdateError    string `json:"lastAdminUpdateError"`
}

// Fields is the overview projection, in display order.
func (d ClusterDetail) Fields() []Field {
	return []Field{
		{"Name", d.Name},
		{"Resource ID", d.ResourceID},
		{"Subscription", d.Subscription},
		{"Resource Group", d.ResourceGroup},
		{"Location", d.Location},
		{"Version", d.Version},
		{"Provisioning State", d.ProvisioningState},
		{"Failed Provisioning State", d.FailedProvisioningState},
		{"Last Provisioning State", d.LastProvisioningState},
		{"Install Status", d.InstallStatus},
		{"Architecture Version", d.ArchitectureVersion},
		{"Infra ID", d.InfraID},
		{"API Server Visibility", d.APIServerVisibility},
		{"API Server URL", d.APIServerURL},
		{"API Server IP", d.APIServerIP},
		{"Console Link", d.ConsoleLink},
		{"Provisioned By", d.ProvisionedBy},
		{"Created At", d.CreatedAt},
		{"Created By", d.CreatedBy},
		{"Last Modified At", d.LastModifiedAt},
		{"Last Modified By", d.LastModifiedBy},
		{"Last Admin Update Error", d.LastAdminUpdateError},
	}
}

// Resources describes node capacity or allocatable amounts.
type Resources struct {
	CPU           string `json:"CPU"`
	StorageVolume string `json:"StorageVolume"`
	Memory        string `json:"Memory"`
	Pods          string `json:"Pods"`
}

// NodeCondition is one entry of a node's status conditions.
type NodeCondition struct {
	Type               string `json:"Type"`
	Status             string `json:"Status"`
	LastHeartbeatTime  string `json:"LastHeartbeatTime"`
	LastTransitionTime string `json:"LastTransitionTime"`
	Reason             string `json:"Reason"`
	Message            string `json:"Message"`
}

// Node is one entry of /nodes.
type Node struct {
	Name        string            `json:"Name"`
	CreatedTime string            `json:"CreatedTime"`
	Capacity    Resources         `json:"Capacity"`
	Allocatable Resources         `json:"Allocatable"`
	Taints      []string          `json:"Taints"`
	Conditions  []NodeCondition   `json:"Conditions"`
	Volumes     []string          `json:"Volumes"`
	Labels      map[string]string `json:"Labels"`
	Annotations map[string]string `json:"Annotations"`
}

// Ready returns the status of the node's Ready condition.
func (n Node) Ready() string {
	for _, c := range n.Conditions {
		if c.Type == "Ready" {
			return c.Status
		}
	}
	return ""
}

// Fields is the node detail projection.
func (n Node) Fields() []Field {
	fields := []Field{
		{"Name", n.Name},
		{"Created", n.CreatedTime},
		{"Capacity CPU", n.Capacity.CPU},
		{"Capacity Memory", n.Capacity.Memory},
		{"Capacity Storage", n.Capacity.StorageVolume},
		{"Capacity Pods", n.Capacity.Pods},
		{"Allocatable CPU", n.Allocatable.CPU},
		{"Allocatable Memory", n.Allocatable.Memory},
		{"Allocatable Storage", n.Allocatable.StorageVolume},
		{"Allocatable Pods", n.Allocatable.Pods},
		{"Taints", strings.Join(n.Taints, ", ")},
		{"Volumes", strings.Join(n.Volumes, ", ")},
	}
	for _, c := range n.Conditions {
		fields = append(fields, Field{"Condition " + c.Type, strings.TrimSpace(c.Status + " " + c.Reason)})
	}
	for _, k := range sortedKeys(n.Labels) {
		fields = append(fields, Field{"Label " + k, n.Labels[k]})
	}
	for _, k := range sortedKeys(n.Annotations) {
		fields = append(fields, Field{"Annotation " + k, n.Annotations[k]})
	}
	return fields
}

// Machine is one entry of /machines.
type Machine struct {
	Name              string `json:"name"`
	CreatedTime       string `json:"createdTime"`
	LastUpdated       string `json:"lastUpdated"`
	ErrorReason       string `json:"errorReason"`
	ErrorMessage      string `json:"errorMessage"`
	LastOperation     string `json:"lastOperation"`
	LastOperationDate string `json:"lastOperationDate"`
	Status            string `json:"status"`
}

// Fields is the machine detail projection.
func (m Machine) Fields() []Field {
	return []Field{
		{"Name", m.Name},
		{"Status", m.Status},
		{"Created", m.CreatedTime},
		{"Last Updated", m.LastUpdated},
		{"Last Operation", m.LastOperation},
		{"Last Operation Date", m.LastOperationDate},
		{"Error Reason", m.ErrorReason},
		{"Error Message", m.ErrorMessage},
	}
}

// MachineSet is one entry of /machine-sets.
type MachineSet struct {
	Name                     string `json:"name"`
	Type                     string `json:"type"`
	CreatedAt                string `json:"createdat"`
	DesiredReplicas          int    `json:"desiredreplicas"`
	Replicas                 int    `json:"replicas"`
	ErrorReason              string `json:"errorreason"`
	ErrorMessage             string `json:"errormessage"`
	PublicLoadBalancerName   string `json:"publicloadbalancername"`
	VMSize                   string `json:"vmsize"`
	OSDiskAccountStorageType string `json:"accountstoragetype"`
	Subnet                   string `json:"subnet"`
	VNet                     string `json:"vnet"`
}

// Fields is the machine set detail projection.
func (s MachineSet) Fields() []Field {
	return []Field{
		{"Name", s.Name},
		{"Type", s.Type},
		{"Created", s.CreatedAt},
		{"Desired Replicas", strconv.Itoa(s.DesiredReplicas)},
		{"Current Replicas", strconv.Itoa(s.Replicas)},
		{"VM Size", s.VMSize},
		{"Storage Type", s.OSDiskAccountStorageType},
		{"Public Load Balancer", s.PublicLoadBalancerName},
		{"VNet", s.VNet},
		{"Subnet", s.Subnet},
		{"Error Reason", s.ErrorReason},
		{"Error Message", s.ErrorMessage},
	}
}

// ClusterOperator is one entry of /clusteroperators.
type ClusterOperator struct {
	Name        string `json:"name"`
	Available   string `json:"available"`
	Progressing string `json:"progressing"`
	Degraded    string `json:"degraded"`
}

// Fields is the operator detail projection.
func (o ClusterOperator) Fields() []Field {
	return []Field{
		{"Name", o.Name},
		{"Available", o.Available},
		{"Progressing", o.Progressing},
		{"Degraded", o.Degraded},
	}
}

// ClusterNetworkEntry is one CIDR block of a cluster network.
type ClusterNetworkEntry struct {
	CIDR             string `json:"cidr"`
	HostSubnetLength string `json:"hostsubnetlength"`
}

// ClusterNetwork is an OpenShift cluster network definition.
type ClusterNetwork struct {
	Name                  string                `json:"name"`
	PluginName            string                `json:"pluginname"`
	NetworkCIDR           string                `json:"networkcidr"`
	ServiceNetworkCIDR    string                `json:"servicenetworkcidr"`
	HostSubnetLength      string                `json:"hostsubnetlength"`
	MTU                   string                `json:"mtu"`
	VXLANPort             string                `json:"vxlanport"`
	ClusterNetworkEntries []ClusterNetworkEntry `json:"clusternetworkentry"`
}

// Fields is the cluster network detail projection.
func (n ClusterNetwork) Fields() []Field {
	fields := []Field{
		{"Name", n.Name},
		{"Plugin", n.PluginName},
		{"Network CIDR", n.NetworkCIDR},
		{"Service Network CIDR", n.ServiceNetworkCIDR},
		{"Host Subnet Length", n.HostSubnetLength},
		{"MTU", n.MTU},
		{"VXLAN Port", n.VXLANPort},
	}
	for i, e := range n.ClusterNetworkEntries {
		fields = append(fields, Field{fmt.Sprintf("Entry %d", i+1), e.CIDR + " /" + e.HostSubnetLength})
	}
	return fields
}

// VNetPeering is a peering on the cluster's virtual network.
type VNetPeering struct {
	Name         string `json:"name"`
	RemoteVNet   string `json:"remotevnet"`
	State        string `json:"state"`
	Provisioning string `json:"provisioning"`
}

// Fields is the peering detail projection.
func (p VNetPeering) Fields() []Field {
	return []Field{
		{"Name", p.Name},
		{"Remote VNet", p.RemoteVNet},
		{"State", p.State},
		{"Provisioning", p.Provisioning},
	}
}

// Subnet is a subnet used by the cluster.
type Subnet struct {
	Name          string `json:"name"`
	ID            string `json:"id"`
	AddressPrefix string `json:"addressprefix"`
	Provisioning  string `json:"provisioning"`
	RouteTable    string `json:"routetable"`
}

// Fields is the subnet detail projection.
func (s Subnet) Fields() []Field {
	return []Field{
		{"Name", s.Name},
		{"ID", s.ID},
		{"Address Prefix", s.AddressPrefix},
		{"Provisioning", s.Provisioning},
		{"Route Table", s.RouteTable},
	}
}

// IngressProfile is one of the cluster's ingress endpoints.
type IngressProfile struct {
	Name       string `json:"name"`
	IP         string `json:"ip"`
	Visibility string `json:"visibility"`
}

// Fields is the ingress profile detail projection.
func (p IngressProfile) Fields() []Field {
	return []Field{
		{"Name", p.Name},
		{"IP", p.IP},
		{"Visibility", p.Visibility},
	}
}

// Networking is the /networking response.
type Networking struct {
	ClusterNetworkList struct {
		ClusterNetworks []ClusterNetwork `json:"clusternetworks"`
	} `json:"clusternetworklist"`
	VNetPeeringList struct {
		VNetPeerings []VNetPeering `json:"vnetpeerings"`
	} `json:"vnetpeeringlist"`
	SubnetList struct {
		Subnets []Subnet `json:"subnets"`
	} `json:"subnetlist"`
	IngressProfileList struct {
		IngressProfiles []IngressProfile `json:"ingressprofiles"`
	} `json:"ingressprofilelist"`
}

// MetricPoint is one sample of a series.
type MetricPoint struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
}

// Metric is one named series of a statistics response.
type Metric struct {
	Name   string        `json:"metricname"`
	Points []MetricPoint `json:"metricvalue"`
}

// Values returns the series values in order.
func (m Metric) Values() []float64 {
	out := make([]float64, len(m.Points))
	for i, p := range m.Points {
		out[i] = p.Value
	}
	return out
}

// SSHCredential is a short-lived login issued by /ssh/new.
type SSHCredential struct {
	Command  string `json:"command,omitempty"`
	Password string `json:"password,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Kubeconfig is a downloaded kubeconfig.
type Kubeconfig struct {
	Filename string
	Data     []byte
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
