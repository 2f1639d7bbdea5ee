package output

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/virtbind/api/v1alpha1"
	"github.com/jbweber/virtbind/internal/storage"
)

// TableFormatter formats records as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool
}

// render writes rows through a tabwriter. An empty row set prints the
// "No <noun> found" line instead of an empty table.
func (f *TableFormatter) render(noun string, header []string, rows [][]string) string {
	if len(rows) == 0 {
		return fmt.Sprintf("No %s found\n", noun)
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, strings.Join(header, "\t"))
	}
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	_ = w.Flush()
	return buf.String()
}

// FormatDomains formats domain summaries as a table.
func (f *TableFormatter) FormatDomains(domains []v1alpha1.DomainSummary) (string, error) {
	rows := make([][]string, 0, len(domains))
	for _, d := range domains {
		id := "-"
		if d.ID > 0 {
			id = fmt.Sprintf("%d", d.ID)
		}
		rows = append(rows, []string{
			id,
			d.Name,
			d.State.String(),
			fmt.Sprintf("%d", d.VCPUs),
			formatKiB(d.MemoryKiB),
			yesNo(d.Autostart),
			yesNo(d.Persisted),
		})
	}
	return f.render("domains", []string{"ID", "NAME", "STATE", "VCPUS", "MEMORY", "AUTOSTART", "PERSISTENT"}, rows), nil
}

// FormatSnapshots formats snapshots as a table.
func (f *TableFormatter) FormatSnapshots(snapshots []v1alpha1.SnapshotInfo) (string, error) {
	rows := make([][]string, 0, len(snapshots))
	for _, s := range snapshots {
		rows = append(rows, []string{
			s.Name,
			dash(s.Parent),
			yesNo(s.Current),
			yesNo(s.HasMetadata),
			fmt.Sprintf("%d", s.Children),
		})
	}
	return f.render("snapshots", []string{"NAME", "PARENT", "CURRENT", "METADATA", "CHILDREN"}, rows), nil
}

// FormatNetworks formats networks as a table.
func (f *TableFormatter) FormatNetworks(networks []v1alpha1.NetworkInfo) (string, error) {
	rows := make([][]string, 0, len(networks))
	for _, n := range networks {
		rows = append(rows, []string{
			n.Name,
			activeState(n.Active),
			dash(n.Bridge),
			yesNo(n.Autostart),
			yesNo(n.Persistent),
		})
	}
	return f.render("networks", []string{"NAME", "STATE", "BRIDGE", "AUTOSTART", "PERSISTENT"}, rows), nil
}

// FormatInterfaces formats host interfaces as a table.
func (f *TableFormatter) FormatInterfaces(ifaces []v1alpha1.InterfaceInfo) (string, error) {
	rows := make([][]string, 0, len(ifaces))
	for _, i := range ifaces {
		rows = append(rows, []string{i.Name, activeState(i.Active), dash(i.MAC)})
	}
	return f.render("interfaces", []string{"NAME", "STATE", "MAC"}, rows), nil
}

// FormatNodeDevices formats node devices as a table.
func (f *TableFormatter) FormatNodeDevices(devices []v1alpha1.NodeDeviceInfo) (string, error) {
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, []string{d.Name, dash(d.Parent)})
	}
	return f.render("node devices", []string{"NAME", "PARENT"}, rows), nil
}

// FormatNWFilters formats network filters as a table.
func (f *TableFormatter) FormatNWFilters(filters []v1alpha1.NWFilterInfo) (string, error) {
	rows := make([][]string, 0, len(filters))
	for _, nf := range filters {
		rows = append(rows, []string{nf.Name, nf.UUID})
	}
	return f.render("network filters", []string{"NAME", "UUID"}, rows), nil
}

// FormatSecrets formats secrets as a table.
func (f *TableFormatter) FormatSecrets(secrets []v1alpha1.SecretInfo) (string, error) {
	rows := make([][]string, 0, len(secrets))
	for _, s := range secrets {
		rows = append(rows, []string{s.UUID, dash(s.UsageType), dash(s.UsageID)})
	}
	return f.render("secrets", []string{"UUID", "USAGE", "USAGE ID"}, rows), nil
}

// FormatPools formats storage pools as a table.
func (f *TableFormatter) FormatPools(pools []storage.PoolInfo) (string, error) {
	rows := make([][]string, 0, len(pools))
	for _, p := range pools {
		rows = append(rows, []string{
			p.Name,
			p.State,
			dash(string(p.Type)),
			dash(p.Path),
			fmt.Sprintf("%.1f GiB", p.CapacityGB()),
			fmt.Sprintf("%.1f GiB", p.AvailableGB()),
			yesNo(p.Autostart),
		})
	}
	return f.render("pools", []string{"NAME", "STATE", "TYPE", "PATH", "CAPACITY", "AVAILABLE", "AUTOSTART"}, rows), nil
}

// FormatVolumes formats storage volumes as a table.
func (f *TableFormatter) FormatVolumes(volumes []storage.VolumeInfo) (string, error) {
	rows := make([][]string, 0, len(volumes))
	for _, v := range volumes {
		rows = append(rows, []string{
			v.Name,
			v.Pool,
			v.Type,
			fmt.Sprintf("%.1f GiB", v.CapacityGB()),
			fmt.Sprintf("%.1f GiB", v.AllocationGB()),
			v.Path,
		})
	}
	return f.render("volumes", []string{"NAME", "POOL", "TYPE", "CAPACITY", "ALLOCATION", "PATH"}, rows), nil
}

// FormatParams formats typed parameters as FIELD/VALUE rows sorted by field.
func (f *TableFormatter) FormatParams(params map[string]any) (string, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, fmt.Sprintf("%v", params[k])})
	}
	return f.render("parameters", []string{"FIELD", "VALUE"}, rows), nil
}

// FormatMap formats key/value pairs as KEY/VALUE rows sorted by key.
func (f *TableFormatter) FormatMap(values map[string]string) (string, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, values[k]})
	}
	return f.render("values", []string{"KEY", "VALUE"}, rows), nil
}

// FormatObject formats a single record as FIELD/VALUE rows in declaration
// order. Nested values are printed inline in YAML flow style.
func (f *TableFormatter) FormatObject(kind string, v any) (string, error) {
	var doc yaml.Node
	if err := doc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", kind, err)
	}

	if doc.Kind != yaml.MappingNode {
		return fmt.Sprintf("%v\n", v), nil
	}

	rows := make([][]string, 0, len(doc.Content)/2)
	for i := 0; i+1 < len(doc.Content); i += 2 {
		value, err := flowValue(doc.Content[i+1])
		if err != nil {
			return "", fmt.Errorf("failed to encode %s field %s: %w", kind, doc.Content[i].Value, err)
		}
		rows = append(rows, []string{strings.ToUpper(doc.Content[i].Value), value})
	}
	return f.render(kind, []string{"FIELD", "VALUE"}, rows), nil
}

// FormatRecords formats prepared rows under header.
func (f *TableFormatter) FormatRecords(kind string, header []string, rows [][]string, _ any) (string, error) {
	return f.render(kind, header, rows), nil
}

func flowValue(n *yaml.Node) (string, error) {
	if n.Kind == yaml.ScalarNode {
		return dash(n.Value), nil
	}
	n.Style = yaml.FlowStyle
	data, err := yaml.Marshal(n)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// formatKiB renders a KiB quantity in the largest whole binary unit.
func formatKiB(kib uint64) string {
	switch {
	case kib >= 1<<20 && kib%(1<<20) == 0:
		return fmt.Sprintf("%d GiB", kib>>20)
	case kib >= 1<<10:
		return fmt.Sprintf("%d MiB", kib>>10)
	default:
		return fmt.Sprintf("%d KiB", kib)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func activeState(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
