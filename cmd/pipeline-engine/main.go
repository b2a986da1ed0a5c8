// Command pipeline-engine runs declarative pipelines.
package main

import "yqhp/pipeline-engine/cmd"

func main() {
	cmd.Execute()
}
