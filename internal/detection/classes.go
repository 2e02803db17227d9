package detection

import (
	"fmt"
	"math"
	"strings"

	"github.com/ironsheep/chart-a11y-mcp/internal/chart"
)

// DefaultLabelTemplate formats a node label from the spoken class name and
// the confidence rounded to a whole percent.
const DefaultLabelTemplate = "%s, confidence %d%%"

// ClassSpec names one model output class.
type ClassSpec struct {
	// Name is the identifier the model was trained with (e.g. "bar").
	Name string `json:"name"`

	// Spoken is the user-facing phrase used in labels (e.g. "Bar chart").
	// Falls back to Name when empty.
	Spoken string `json:"spoken,omitempty"`
}

// ClassTable is the ordered class taxonomy of one model together with the
// template used to build node labels. Index i of Classes corresponds to
// class id i in the model output.
type ClassTable struct {
	Name     string      `json:"name"`
	Classes  []ClassSpec `json:"classes"`
	Template string      `json:"template"`
}

// ChartTypes is the three-class chart-type taxonomy.
var ChartTypes = ClassTable{
	Name: "chart-types",
	Classes: []ClassSpec{
		{Name: "bar", Spoken: "Bar chart"},
		{Name: "line", Spoken: "Line chart"},
		{Name: "pie", Spoken: "Pie chart"},
	},
	Template: DefaultLabelTemplate,
}

// ChartElements is the eight-class chart-element taxonomy.
var ChartElements = ClassTable{
	Name: "chart-elements",
	Classes: []ClassSpec{
		{Name: "chart", Spoken: "Chart"},
		{Name: "bar", Spoken: "Bar"},
		{Name: "line_point", Spoken: "Line point"},
		{Name: "pie_slice", Spoken: "Pie slice"},
		{Name: "axis_label", Spoken: "Axis label"},
		{Name: "legend", Spoken: "Legend"},
		{Name: "title", Spoken: "Title"},
		{Name: "data_label", Spoken: "Data label"},
	},
	Template: DefaultLabelTemplate,
}

// LookupClassTable returns a built-in table by name.
func LookupClassTable(name string) (ClassTable, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ChartTypes.Name, "types", "3":
		return ChartTypes, nil
	case ChartElements.Name, "elements", "8":
		return ChartElements, nil
	default:
		return ClassTable{}, fmt.Errorf("unknown class table: %s", name)
	}
}

// Len returns the number of classes.
func (t ClassTable) Len() int { return len(t.Classes) }

// Names returns the class identifiers in id order.
func (t ClassTable) Names() []string {
	names := make([]string, len(t.Classes))
	for i, c := range t.Classes {
		names[i] = c.Name
	}
	return names
}

// ClassName returns the identifier for id, or "class_<id>" when id is not
// covered by the table.
func (t ClassTable) ClassName(id int) string {
	if id >= 0 && id < len(t.Classes) {
		return t.Classes[id].Name
	}
	return fmt.Sprintf("class_%d", id)
}

// Label builds the user-facing text for a detection.
func (t ClassTable) Label(d chart.Detection) string {
	spoken := d.ClassName
	if d.ClassID >= 0 && d.ClassID < len(t.Classes) {
		c := t.Classes[d.ClassID]
		spoken = c.Name
		if c.Spoken != "" {
			spoken = c.Spoken
		}
	}
	tmpl := t.Template
	if tmpl == "" {
		tmpl = DefaultLabelTemplate
	}
	return fmt.Sprintf(tmpl, spoken, int(math.Round(d.Confidence*100)))
}
