package report

import "html/template"

// htmlDashboardTemplate is the render engine for the html dashboard report.
var htmlDashboardTemplate = template.Must(
	template.New("htmlDashboardTemplate").Parse(htmlDashboard),
)

// htmlDashboard is the template contents for the html dashboard report.
var htmlDashboard = "" +
	`<!DOCTYPE html>
<html lang="en">

<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{ .Title }}</title>
    <style type="text/css">
        body {
            font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
            margin: 0;
            padding: 20px;
            background-color: #f5f7fa;
            color: #333;
        }
        .container {
            max-width: 1200px;
            margin: 0 auto;
            background: white;
            border-radius: 12px;
            box-shadow: 0 4px 20px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        .header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px;
            text-align: center;
        }
        .header h1 {
            margin: 0;
            font-size: 2.5em;
            font-weight: 300;
        }
        .header .subtitle {
            margin-top: 10px;
            font-size: 1.1em;
            opacity: 0.9;
        }
        .content {
            padding: 30px;
        }
        .section {
            margin-bottom: 40px;
        }
        .section h2 {
            color: #2c3e50;
            border-bottom: 3px solid #3498db;
            padding-bottom: 10px;
            margin-bottom: 20px;
            font-size: 1.8em;
            font-weight: 400;
        }
        .metrics-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(250px, 1fr));
            gap: 20px;
            margin-bottom: 30px;
        }
        .metric-card {
            background: #f8f9fa;
            border-radius: 8px;
            padding: 20px;
            text-align: center;
            border-left: 5px solid #3498db;
        }
        .metric-card h3 {
            margin: 0 0 10px 0;
            color: #2c3e50;
            font-size: 1.1em;
        }
        .metric-value {
            font-size: 2.5em;
            font-weight: bold;
            color: #3498db;
            margin: 10px 0;
        }
        .metric-trend {
            font-size: 0.9em;
            color: #7f8c8d;
        }
        .critical { border-left-color: #e74c3c; }
        .critical .metric-value { color: #e74c3c; }
        .warning { border-left-color: #f39c12; }
        .warning .metric-value { color: #f39c12; }
        .success { border-left-color: #27ae60; }
        .success .metric-value { color: #27ae60; }
        .gaps-table, .suggestions-table {
            width: 100%;
            border-collapse: collapse;
            margin-top: 20px;
        }
        .gaps-table th, .gaps-table td,
        .suggestions-table th, .suggestions-table td {
            padding: 12px 15px;
            text-align: left;
            border-bottom: 1px solid #ecf0f1;
        }
        .gaps-table th, .suggestions-table th {
            background: #34495e;
            color: white;
            font-weight: 600;
        }
        .severity-critical { background: #ffebee; color: #c62828; }
        .severity-high { background: #fff3e0; color: #ef6c00; }
        .severity-medium { background: #f3e5f5; color: #7b1fa2; }
        .severity-low { background: #e8f5e8; color: #2e7d32; }
        .priority-high { font-weight: bold; color: #d32f2f; }
        .priority-medium { color: #f57c00; }
        .priority-low { color: #388e3c; }
        .summary-stats {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 15px;
            margin: 20px 0;
        }
        .stat-item {
            background: #ecf0f1;
            padding: 15px;
            border-radius: 6px;
            text-align: center;
        }
        .stat-value {
            font-size: 1.5em;
            font-weight: bold;
            color: #2c3e50;
        }
        .stat-label {
            color: #7f8c8d;
            font-size: 0.9em;
            margin-top: 5px;
        }
        .src-snippet {
            margin-top: 2em;
        }
        .src-name {
            font-weight: bold;
        }
        .snippets {
            border-top: 1px solid #bdbdbd;
            border-bottom: 1px solid #bdbdbd;
        }
    </style>
</head>

<body>
    <div class="container">
        <div class="header">
            <h1>{{ .Title }}</h1>
            <div class="subtitle">Generated on {{ .GeneratedAt }}</div>
        </div>
        <div class="content">
            <div class="section">
                <h2>Coverage Summary</h2>
                <div class="summary-stats">
                    <div class="stat-item">
                        <div class="stat-value">{{ printf "%.1f" .OverallScore }}</div>
                        <div class="stat-label">Overall Score</div>
                    </div>
                    <div class="stat-item">
                        <div class="stat-value">{{ printf "%.1f" .Metrics.LineCoveragePercent }}%</div>
                        <div class="stat-label">Line Coverage</div>
                    </div>
                    <div class="stat-item">
                        <div class="stat-value">{{ printf "%.1f" .Metrics.BranchCoveragePercent }}%</div>
                        <div class="stat-label">Branch Coverage</div>
                    </div>
                    <div class="stat-item">
                        <div class="stat-value">{{ printf "%.1f" .Metrics.FunctionCoveragePercent }}%</div>
                        <div class="stat-label">Function Coverage</div>
                    </div>
                    <div class="stat-item">
                        <div class="stat-value">{{ .Metrics.TotalGaps }}</div>
                        <div class="stat-label">Coverage Gaps</div>
                    </div>
                    <div class="stat-item">
                        <div class="stat-value">{{ .Metrics.CoverageTrend }}</div>
                        <div class="stat-label">Trend Direction</div>
                    </div>
                </div>
            </div>

            <div class="section">
                <h2>Quality Metrics</h2>
                <div class="metrics-grid">
                    <div class="metric-card {{ .LineClass }}">
                        <h3>Line Coverage</h3>
                        <div class="metric-value">{{ printf "%.1f" .Metrics.LineCoveragePercent }}%</div>
                        <div class="metric-trend">Effective: {{ printf "%.1f" .Metrics.EffectiveCoverageScore }}%</div>
                    </div>
                    <div class="metric-card {{ .BranchClass }}">
                        <h3>Branch Coverage</h3>
                        <div class="metric-value">{{ printf "%.1f" .Metrics.BranchCoveragePercent }}%</div>
                        <div class="metric-trend">Decision Points</div>
                    </div>
                    <div class="metric-card">
                        <h3>Function Coverage</h3>
                        <div class="metric-value">{{ printf "%.1f" .Metrics.FunctionCoveragePercent }}%</div>
                        <div class="metric-trend">Callable Functions</div>
                    </div>
                    <div class="metric-card {{ .QualityClass }}">
                        <h3>Overall Quality</h3>
                        <div class="metric-value">{{ printf "%.1f" .OverallScore }}</div>
                        <div class="metric-trend">Composite Score</div>
                    </div>
                    <div class="metric-card">
                        <h3>Test Quality</h3>
                        <div class="metric-value">{{ printf "%.1f" .Metrics.TestQualityScore }}</div>
                        <div class="metric-trend">Test Effectiveness</div>
                    </div>
                    <div class="metric-card">
                        <h3>Coverage Density</h3>
                        <div class="metric-value">{{ printf "%.2f" .Metrics.CoverageDensity }}</div>
                        <div class="metric-trend">Coverage per LOC</div>
                    </div>
                </div>
            </div>

            <div class="section">
                <h2>Coverage Gaps</h2>
                {{ if .Gaps }}
                <table class="gaps-table">
                    <thead>
                        <tr>
                            <th>File</th>
                            <th>Function/Type</th>
                            <th>Lines</th>
                            <th>Type</th>
                            <th>Severity</th>
                            <th>Complexity</th>
                            <th>Suggestions</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{ range .Gaps }}
                        <tr>
                            <td>{{ .File }}</td>
                            <td>{{ .Scope }}</td>
                            <td>{{ .Lines }}</td>
                            <td>{{ .Type }}</td>
                            <td><span class="severity-{{ .Severity }}">{{ .Severity }}</span></td>
                            <td>{{ .Complexity }}</td>
                            <td>{{ .Hints }}</td>
                        </tr>
                        {{ end }}
                    </tbody>
                </table>
                {{ else }}
                <p>No significant coverage gaps detected.</p>
                {{ end }}
            </div>

            {{ if .Snippets }}
            <div class="section">
                <h2>Uncovered Code</h2>
                {{ range .Snippets }}
                <div class="src-snippet">
                    <div class="src-name" id="{{ .File }}">{{ .File }}</div>
                    <div class="snippets">
                        {{ .Code }}
                    </div>
                </div>
                {{ end }}
            </div>
            {{ end }}

            {{ if .Trend }}
            <div class="section">
                <h2>Coverage Trends</h2>
                <div class="summary-stats">
                    <div class="stat-item">
                        <div class="stat-value">{{ .Trend.DataPoints }}</div>
                        <div class="stat-label">Data Points</div>
                    </div>
                    <div class="stat-item">
                        <div class="stat-value">{{ .Trend.Direction }}</div>
                        <div class="stat-label">Trend Direction</div>
                    </div>
                    <div class="stat-item">
                        <div class="stat-value">{{ printf "%.1f" .Trend.Average }}%</div>
                        <div class="stat-label">Average Coverage</div>
                    </div>
                    <div class="stat-item">
                        <div class="stat-value">{{ printf "%.1f" .Trend.Range }}%</div>
                        <div class="stat-label">Coverage Range</div>
                    </div>
                </div>
            </div>
            {{ end }}

            {{ if .Suggestions }}
            <div class="section">
                <h2>Test Suggestions</h2>
                <table class="suggestions-table">
                    <thead>
                        <tr>
                            <th>File</th>
                            <th>Function/Type</th>
                            <th>Test Type</th>
                            <th>Priority</th>
                            <th>Description</th>
                            <th>Suggested Test Name</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{ range .Suggestions }}
                        <tr>
                            <td>{{ .File }}</td>
                            <td>{{ .Scope }}</td>
                            <td>{{ .Type }}</td>
                            <td><span class="priority-{{ .Priority }}">{{ .Priority }}</span></td>
                            <td>{{ .Description }}</td>
                            <td><code>{{ .TestName }}</code></td>
                        </tr>
                        {{ end }}
                    </tbody>
                </table>
            </div>
            {{ end }}
        </div>
    </body>

</html>
`
