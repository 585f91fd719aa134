package recovery

import "github.com/debugmcp/jdwp-mcp/pkg/types"

// genericRecommendations is a static lookup keyed by error kind. Kinds
// without an entry fall through to the generic list.
var genericRecommendations = map[types.ErrorKind][]string{
	types.ErrorKindConnection: {
		"Verify the target JVM is running and was started with -agentlib:jdwp.",
		"Check that the host and port in the attach configuration match the agent.",
		"Use debug_scan_ports to locate live debug agents.",
		"Confirm no firewall blocks the debug port.",
	},
	types.ErrorKindHandshake: {
		"Another debugger may already hold the connection; disconnect it or attach in observer mode.",
		"Confirm the port is a JDWP agent and not a different service.",
		"Restart the target JVM if the agent is in a bad state.",
	},
	types.ErrorKindConfiguration: {
		"Run debug_analyze_project to auto-detect mainClass, classPaths, and sourcePaths.",
		"Verify the workspace root points at the project containing the build files.",
		"Check the attach configuration for typos in host, port, or class names.",
	},
	types.ErrorKindTimeout: {
		"The agent may be slow to start; wait a few seconds and retry the attach.",
		"Increase the handshake timeout if the target host is remote.",
		"Check system load on the target host.",
	},
}

var fallbackRecommendations = []string{
	"Retry the attach after verifying the target process is running.",
	"Run debug_diagnose for a full environment sweep.",
	"Start an interactive troubleshooting session with debug_troubleshoot.",
	"Consider hybrid debugging if a live connection keeps failing.",
}

// GenericRecommendations returns canned suggestions for an error kind.
// Unknown and unrecognized kinds get the generic list.
func GenericRecommendations(kind types.ErrorKind) []string {
	if recs, ok := genericRecommendations[kind]; ok {
		return append([]string(nil), recs...)
	}
	return append([]string(nil), fallbackRecommendations...)
}

// guideTable holds the static troubleshooting guides. Only connection and
// configuration failures have dedicated entries; every other kind returns
// the generic guide.
var guideTable = map[types.ErrorKind]types.TroubleshootingGuide{
	types.ErrorKindConnection: {
		Problem: "Cannot connect to the debug agent",
		Symptoms: []string{
			"Connection refused when attaching",
			"Attach hangs and then times out",
			"The configured port is closed",
		},
		Solutions: []types.TroubleshootingSolution{
			{
				Title:       "Enable the debug agent on the target JVM",
				Description: "The JVM must be started with the JDWP agent before anything can attach.",
				Steps: []string{
					"Stop the target application.",
					"Add " + agentLaunchFlag(5005) + " to the JVM arguments.",
					"Restart the application and confirm 'Listening for transport dt_socket' appears in its output.",
					"Retry the attach.",
				},
				Difficulty:    "easy",
				EstimatedTime: "5 minutes",
			},
			{
				Title:       "Locate the agent on a different port",
				Description: "The agent may be listening on a non-default port.",
				Steps: []string{
					"Run debug_scan_ports to probe the common debug ports.",
					"Update the attach configuration with the discovered port.",
					"Retry the attach.",
				},
				Difficulty:    "easy",
				EstimatedTime: "2 minutes",
			},
		},
		PreventionTips: []string{
			"Pin the debug port in your run scripts so it never drifts.",
			"Expose the debug port in container port mappings.",
		},
	},
	types.ErrorKindConfiguration: {
		Problem: "Attach configuration is incomplete or wrong",
		Symptoms: []string{
			"Missing main class errors",
			"Breakpoints never bind",
			"Source files cannot be resolved",
		},
		Solutions: []types.TroubleshootingSolution{
			{
				Title:       "Auto-detect project metadata",
				Description: "Let the analyzer fill mainClass, classPaths, and sourcePaths from the build files.",
				Steps: []string{
					"Run debug_analyze_project against the workspace root.",
					"Merge the detected values into the attach configuration.",
					"Rebuild the project so compiled classes are current.",
				},
				Difficulty:    "easy",
				EstimatedTime: "5 minutes",
			},
			{
				Title:       "Fix the configuration by hand",
				Description: "Set the fields explicitly when auto-detection cannot see your layout.",
				Steps: []string{
					"Set mainClass to the fully qualified entry class.",
					"Point classPaths at the compiled output directories.",
					"Point sourcePaths at the source roots.",
				},
				Difficulty:    "medium",
				EstimatedTime: "10 minutes",
			},
		},
		PreventionTips: []string{
			"Keep build files checked in so detection always has something to read.",
			"Rebuild before debugging so class files match the sources.",
		},
	},
}

// genericGuide is returned for every kind without a dedicated entry.
var genericGuide = types.TroubleshootingGuide{
	Problem: "Debug session failure",
	Symptoms: []string{
		"The attach attempt did not complete",
	},
	Solutions: []types.TroubleshootingSolution{
		{
			Title:       "Run the diagnostics sweep",
			Description: "Collect environment, connection, and configuration findings in one pass.",
			Steps: []string{
				"Run debug_diagnose against the workspace root.",
				"Address findings in severity order, critical first.",
				"Retry the attach.",
			},
			Difficulty:    "easy",
			EstimatedTime: "5 minutes",
		},
	},
	PreventionTips: []string{
		"Run debug_diagnose whenever the environment changes.",
	},
}

// GenerateTroubleshootingGuide returns the static guide for the failure's
// kind. Pure function: no side effects, no dependency on history or
// context.
func GenerateTroubleshootingGuide(derr *types.DebugError) types.TroubleshootingGuide {
	if guide, ok := guideTable[derr.Kind]; ok {
		return guide
	}
	return genericGuide
}
