package generation

import (
	"bytes"
	"text/template"
)

const systemPrompt = `You are a research assistant for quantitative spatial economics.
You derive theoretical models, generate calibrated synthetic equilibrium
datasets, and analyze counterfactual scenarios. Be rigorous and concise.
Use $$...$$ for block math and $...$ for inline math.`

var modelLogicTmpl = template.Must(template.New("model_logic").Parse(`A researcher wants to study the following question:

{{.Problem}}

Write down a quantitative spatial model suited to this question. State the
utility and production structure, the role of amenities and productivity as
exogenous fundamentals, the equilibrium conditions, and the key structural
parameters (with plausible values). Respond in markdown.`))

var syntheticDataTmpl = template.Must(template.New("synthetic_data").Parse(`Given the following theoretical model:

{{.ModelLogic}}

Generate a calibrated synthetic equilibrium dataset for several distinct
locations. Respond with a single JSON object with this shape:
- "description": short text describing the calibration
- "locations": array of objects, each with "id", "name", "population",
  "wages", "rents", "amenity", "productivity" (ids unique, all quantities
  numeric, population/wages/rents non-negative)
- "parameters": object mapping structural parameter names to numbers
- "totalWelfare": optional number

Respond with JSON only, no prose.`))

var analysisTmpl = template.Must(template.New("analysis").Parse(`Given the following theoretical model:

{{.ModelLogic}}

and this equilibrium dataset:

{{.ResultJSON}}

Write an estimation and analysis report: recover the structural parameters
implied by the data, discuss fit, and interpret the spatial distribution of
population, wages and rents. Respond in markdown.`))

var counterfactualTmpl = template.Must(template.New("counterfactual").Parse(`Here is a baseline equilibrium dataset:

{{.ResultJSON}}

Recompute the equilibrium under the following counterfactual shock:

{{.Shock}}

Hold the model structure and all parameters fixed except as the shock
requires. Respond with a single JSON object in exactly the same shape as the
baseline dataset ("description", "locations", "parameters", optional
"totalWelfare"), with the same location ids. Respond with JSON only.`))

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	_ = t.Execute(&buf, data)
	return buf.String()
}
