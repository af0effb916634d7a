package api

import (
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/abelzeko/soilism/internal/entities"
	"github.com/abelzeko/soilism/internal/policy"
)

var dashboardFuncs = template.FuncMap{
	"lower": func(s policy.Status) string { return strings.ToLower(string(s)) },
	"rng": func(r policy.Range, unit string) string {
		return trimFloat(r.Min) + "–" + trimFloat(r.Max) + " " + unit
	},
}

var dashboardTemplate = template.Must(template.New("dashboard").Funcs(dashboardFuncs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Soilism</title>
<style>
body{margin:0;font-family:Tahoma,sans-serif;background:#d9d6cf;color:#0f1f1b;}
.top-bar{background:#7fa89a;padding:12px;text-align:center;font-weight:700;}
.dashboard{max-width:1000px;margin:20px auto;padding:16px;display:grid;grid-template-columns:1fr 1.2fr;gap:20px;}
.ideal-panel{background:#143a32;color:#e9f3ef;border-radius:12px;padding:20px;}
.card,.plant-item{background:#fff;border-radius:12px;padding:16px;margin-bottom:20px;}
input,select,button{width:100%;padding:10px;margin-top:8px;border-radius:8px;border:1px solid #ccc;}
.ok{color:#3cb371;}.low{color:#e0a800;}.high{color:#d9534f;}
@media(max-width:768px){.dashboard{grid-template-columns:1fr;}}
</style>
</head>
<body>
<div class="top-bar">SOILISM ❋</div>
<div class="dashboard">
<div class="ideal-panel">
<h3>PLANT DATA (IDEAL LEVELS)</h3>
<table id="idealLevels">
<tr><th>Soil</th><th>Soil Moisture</th><th>Temperature</th><th>Humidity</th></tr>
{{range .Ideal}}<tr class="ideal-row" data-soil="{{.Soil}}"><td>{{.Soil}}</td><td>{{rng .Ranges.Moisture "%"}}</td><td>{{rng .Ranges.Temperature "°C"}}</td><td>{{rng .Ranges.Humidity "%"}}</td></tr>
{{end}}</table>
</div>
<div>
<div class="card">
<h3>Add New Plant</h3>
<input id="plantName" placeholder="Plant Name">
<select id="soilType">
<option value="">Soil Type</option>
{{range .Soils}}<option>{{.}}</option>
{{end}}</select>
<button id="addPlantBtn">Add</button>
</div>
<div id="plantList">
{{range .Plants}}<div class="plant-item" data-id="{{.ID}}">
<strong class="plant-name">{{.Name}}</strong><br>
<small class="plant-soil">Soil: {{.Soil}}</small>
<div class="readings">
🌡 <span class="temperature">{{printf "%.1f" .Reading.Temperature}}</span>°C (<span class="{{lower .Status.Temperature}}">{{.Status.Temperature}}</span>)<br>
💧 <span class="moisture">{{.Reading.SoilMoisture}}</span>% (<span class="{{lower .Status.Moisture}}">{{.Status.Moisture}}</span>)<br>
🌫 <span class="humidity">{{printf "%.1f" .Reading.Humidity}}</span>% (<span class="{{lower .Status.Humidity}}">{{.Status.Humidity}}</span>)
</div>
<div class="watering">
🕒 Last watered: <span class="last-watered">{{.LastWatered}}</span><br>
📊 Times watered: <span class="times-watered">{{.TimesWatered}}</span>
</div>
<ul class="history">{{range .History}}<li>{{.}}</li>{{else}}<li>No watering records</li>{{end}}</ul>
<button class="water-btn" data-id="{{.ID}}">💦 Water</button>
<button class="delete-btn" data-id="{{.ID}}">🗑️ Delete</button>
</div>
{{else}}<p class="empty">No plants yet.</p>
{{end}}</div>
</div>
</div>
<script>
function post(path,body){
  return fetch(path,{method:"POST",headers:{"Content-Type":"application/json"},body:body?JSON.stringify(body):undefined});
}
document.getElementById("addPlantBtn").onclick=()=>{
  const name=document.getElementById("plantName").value;
  const soil=document.getElementById("soilType").value;
  if(!name||!soil){alert("Fill all fields");return;}
  post("/add",{name:name,soil:soil}).then(()=>location.reload());
};
document.querySelectorAll(".water-btn").forEach(b=>b.onclick=()=>post("/water/"+b.dataset.id).then(()=>location.reload()));
document.querySelectorAll(".delete-btn").forEach(b=>b.onclick=()=>{
  if(confirm("Delete this plant?")){post("/delete/"+b.dataset.id).then(()=>location.reload());}
});
const ws=new WebSocket((location.protocol==="https:"?"wss://":"ws://")+location.host+"/ws");
ws.onmessage=()=>location.reload();
</script>
</body>
</html>
`))

type idealRow struct {
	Soil   entities.SoilCategory
	Ranges policy.IdealRanges
}

type dashboardData struct {
	Ideal  []idealRow
	Soils  []entities.SoilCategory
	Plants []dashboardPlant
}

// renderDashboard writes the dashboard page for plants
func renderDashboard(w io.Writer, plants []entities.Plant) error {
	data := dashboardData{Soils: entities.KnownSoilCategories}
	for _, soil := range entities.KnownSoilCategories {
		data.Ideal = append(data.Ideal, idealRow{Soil: soil, Ranges: policy.Ideal(soil)})
	}
	for _, p := range plants {
		data.Plants = append(data.Plants, newDashboardPlant(p))
	}
	return dashboardTemplate.Execute(w, data)
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
