// Command omnicoach tracks computer activity, schedules LLM coaching
// feedback and keeps LLM spend inside a monthly budget.
package main

func main() {
	Execute()
}
