// Package playbook renders converted tasks and handlers as a target
// playbook in YAML.
//
// Parameter order in the output matches declaration order in the source;
// the encoder builds yaml.Node trees directly instead of marshaling maps so
// ordering is never left to map iteration.
package playbook

import (
	"fmt"

	"github.com/recipeshift/recipeshift/task"
	yaml "gopkg.in/yaml.v3"
)

// A Play is one named play over a task list.
type Play struct {
	Name     string
	Hosts    string // defaults to "all"
	Tasks    []task.Task
	Handlers []task.Handler
}

// Marshal renders plays as a YAML document.
func Marshal(plays ...Play) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.SequenceNode}
	for _, p := range plays {
		n, err := playNode(p)
		if err != nil {
			return nil, err
		}
		root.Content = append(root.Content, n)
	}
	return yaml.Marshal(root)
}

func playNode(p Play) (*yaml.Node, error) {
	hosts := p.Hosts
	if hosts == "" {
		hosts = "all"
	}

	n := mapping()
	addScalar(n, "name", p.Name)
	addScalar(n, "hosts", hosts)

	tasks := &yaml.Node{Kind: yaml.SequenceNode}
	for _, t := range p.Tasks {
		tn, err := taskNode(t)
		if err != nil {
			return nil, err
		}
		tasks.Content = append(tasks.Content, tn)
		// Immediate notifications run inline right after their trigger.
		for _, post := range t.Post {
			pn, err := taskNode(post)
			if err != nil {
				return nil, err
			}
			tasks.Content = append(tasks.Content, pn)
		}
	}
	add(n, "tasks", tasks)

	if len(p.Handlers) > 0 {
		handlers := &yaml.Node{Kind: yaml.SequenceNode}
		for _, h := range p.Handlers {
			hn, err := taskNode(h.Task)
			if err != nil {
				return nil, err
			}
			setName(hn, h.Name)
			handlers.Content = append(handlers.Content, hn)
		}
		add(n, "handlers", handlers)
	}

	return n, nil
}

func taskNode(t task.Task) (*yaml.Node, error) {
	n := mapping()
	addScalar(n, "name", t.Name)

	params := mapping()
	for _, p := range t.Parameters {
		var v yaml.Node
		if err := v.Encode(p.Value); err != nil {
			return nil, fmt.Errorf("encode parameter %s: %v", p.Name, err)
		}
		add(params, p.Name, &v)
	}
	add(n, t.Module, params)

	if t.Condition != nil {
		addScalar(n, "when", t.Condition.Render())
	}
	if len(t.NotifyRefs) > 0 {
		refs := &yaml.Node{Kind: yaml.SequenceNode}
		for _, r := range t.NotifyRefs {
			refs.Content = append(refs.Content, scalar(r))
		}
		add(n, "notify", refs)
	}
	if len(t.Warnings) > 0 {
		// Review notes travel with the task so they survive into the file.
		warns := &yaml.Node{Kind: yaml.SequenceNode}
		for _, w := range t.Warnings {
			warns.Content = append(warns.Content, scalar(w))
		}
		add(n, "vars", wrap("conversion_warnings", warns))
	}

	return n, nil
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode}
}

func scalar(s string) *yaml.Node {
	n := &yaml.Node{}
	n.SetString(s)
	return n
}

func add(m *yaml.Node, key string, val *yaml.Node) {
	m.Content = append(m.Content, scalar(key), val)
}

func addScalar(m *yaml.Node, key, val string) {
	add(m, key, scalar(val))
}

func wrap(key string, val *yaml.Node) *yaml.Node {
	m := mapping()
	add(m, key, val)
	return m
}

// setName replaces the task's name entry, used to align handler names with
// the notify references that invoke them.
func setName(taskNode *yaml.Node, name string) {
	for i := 0; i+1 < len(taskNode.Content); i += 2 {
		if taskNode.Content[i].Value == "name" {
			taskNode.Content[i+1] = scalar(name)
			return
		}
	}
}
