// File path: internal/workflow/generator/spring.go
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nicodishanthj/Katral_bw/internal/ir"
)

// Logger captures the logging interface used by the workflow.
type Logger func(level, format string, args ...interface{})

// SpringRenderer turns a ProcessPlan into a Spring Boot source tree. Paths in
// the returned map are slash separated and relative to the project root.
type SpringRenderer struct {
	log Logger
}

// NewSpringRenderer constructs a renderer. The logger is optional.
func NewSpringRenderer(logger Logger) *SpringRenderer {
	if logger == nil {
		logger = func(string, string, ...interface{}) {}
	}
	return &SpringRenderer{log: logger}
}

// Render produces the project files for plan.
func (r *SpringRenderer) Render(ctx context.Context, plan *ir.ProcessPlan) (map[string]string, error) {
	if plan == nil || plan.Unit == nil {
		return nil, errors.New("process plan required")
	}
	if strings.TrimSpace(plan.ProcessName) == "" {
		return nil, errors.New("process name required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := newProject(plan)
	files := map[string]string{}
	p.writeCommon(files)
	switch plan.Architecture {
	case ir.ArchitectureHexagonal:
		p.writeHexagonal(files)
	default:
		p.writeLayered(files)
	}
	r.log("info", "Rendered %d files for %s (%s, %s)", len(files), plan.ProcessName, plan.Architecture, plan.Styles)
	return files, nil
}

// step is one activity as seen by the generated service.
type step struct {
	activity ir.Activity
	method   string
	constant string
}

type project struct {
	plan       *ir.ProcessPlan
	name       string
	artifact   string
	pkg        string
	styles     ir.StyleSet
	steps      []step
	dtos       []*ir.SchemaType
	request    string
	response   string
	hasKind    map[ir.ActivityKind]bool
	namespace  string
	basePath   string
	sourceRoot string
	testRoot   string
}

func newProject(plan *ir.ProcessPlan) *project {
	name := className(plan.ProcessName)
	p := &project{
		plan:     plan,
		name:     name,
		artifact: safeComponent(plan.ProcessName),
		pkg:      validPackageRoot(plan.PackageRoot) + "." + packageSegment(plan.ProcessName),
		styles:   plan.Styles,
		hasKind:  map[ir.ActivityKind]bool{},
	}
	if len(p.styles) == 0 {
		p.styles = ir.StyleSet{ir.StyleREST, ir.StyleSOAP}
	}
	p.sourceRoot = "src/main/java/" + packagePath(p.pkg)
	p.testRoot = "src/test/java/" + packagePath(p.pkg)
	p.basePath = "/api/" + p.artifact
	p.namespace = "http://" + strings.Join(reverse(strings.Split(validPackageRoot(plan.PackageRoot), ".")), ".") + "/" + p.artifact

	used := map[string]bool{}
	for i, activity := range plan.Unit.Activities {
		method := memberName(activity.Name)
		if activity.Name == "" {
			method = fmt.Sprintf("step%d", i+1)
		}
		base := method
		for n := 2; used[method]; n++ {
			method = fmt.Sprintf("%s%d", base, n)
		}
		used[method] = true
		p.steps = append(p.steps, step{activity: activity, method: method, constant: constantName(method)})
		p.hasKind[activity.Kind] = true
	}
	for _, t := range plan.Unit.Schemas {
		if t != nil && !t.IsPrimitive() {
			p.dtos = append(p.dtos, t)
		}
	}
	p.request, p.response = p.payloadTypes()
	return p
}

// payloadTypes picks the request and response types exposed by the entry
// point: the inbound activity's input and the last declared output.
func (p *project) payloadTypes() (string, string) {
	var in, out *ir.SchemaType
	for _, s := range p.steps {
		if s.activity.Kind == ir.ActivityInboundCall && s.activity.Input != nil && in == nil {
			in = s.activity.Input
		}
	}
	for _, s := range p.steps {
		if in == nil && s.activity.Input != nil {
			in = s.activity.Input
		}
		if s.activity.Output != nil {
			out = s.activity.Output
		}
	}
	return javaType(in), javaType(out)
}

func (p *project) has(kind ir.ActivityKind) bool {
	return p.hasKind[kind]
}

func (p *project) stepsOf(kind ir.ActivityKind) []step {
	var out []step
	for _, s := range p.steps {
		if s.activity.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

func (p *project) writeCommon(files map[string]string) {
	files["pom.xml"] = p.pom()
	files["README.md"] = p.readme()
	files["src/main/resources/application.yml"] = p.applicationYAML()
	files[p.sourceRoot+"/Application.java"] = fmt.Sprintf(`package %s;

import org.springframework.boot.SpringApplication;
import org.springframework.boot.autoconfigure.SpringBootApplication;

@SpringBootApplication
public class Application {
    public static void main(String[] args) {
        SpringApplication.run(Application.class, args);
    }
}
`, p.pkg)
	files[p.testRoot+"/ApplicationTests.java"] = fmt.Sprintf(`package %s;

import org.junit.jupiter.api.Test;
import org.springframework.boot.test.context.SpringBootTest;

@SpringBootTest
class ApplicationTests {
    @Test
    void contextLoads() {
    }
}
`, p.pkg)
}

func (p *project) pom() string {
	deps := []string{"spring-boot-starter-web"}
	if p.styles.Has(ir.StyleSOAP) {
		deps = append(deps, "spring-boot-starter-web-services")
	}
	if p.has(ir.ActivityDataAccess) {
		deps = append(deps, "spring-boot-starter-jdbc")
	}
	if p.has(ir.ActivityMessagingSend) || p.has(ir.ActivityMessagingReceive) {
		deps = append(deps, "spring-boot-starter-activemq")
	}
	var b strings.Builder
	for _, dep := range deps {
		fmt.Fprintf(&b, `        <dependency>
            <groupId>org.springframework.boot</groupId>
            <artifactId>%s</artifactId>
        </dependency>
`, dep)
	}
	if p.styles.Has(ir.StyleSOAP) {
		b.WriteString(`        <dependency>
            <groupId>wsdl4j</groupId>
            <artifactId>wsdl4j</artifactId>
        </dependency>
`)
	}
	if p.has(ir.ActivityDataAccess) {
		b.WriteString(`        <dependency>
            <groupId>com.h2database</groupId>
            <artifactId>h2</artifactId>
            <scope>runtime</scope>
        </dependency>
`)
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
         xsi:schemaLocation="http://maven.apache.org/POM/4.0.0 http://maven.apache.org/xsd/maven-4.0.0.xsd">
    <modelVersion>4.0.0</modelVersion>
    <parent>
        <groupId>org.springframework.boot</groupId>
        <artifactId>spring-boot-starter-parent</artifactId>
        <version>3.2.5</version>
        <relativePath/>
    </parent>
    <groupId>%s</groupId>
    <artifactId>%s</artifactId>
    <version>0.0.1-SNAPSHOT</version>
    <name>%s</name>
    <description>Migrated from TIBCO BusinessWorks process %s</description>
    <properties>
        <java.version>17</java.version>
    </properties>
    <dependencies>
%s        <dependency>
            <groupId>org.springframework.boot</groupId>
            <artifactId>spring-boot-starter-test</artifactId>
            <scope>test</scope>
        </dependency>
    </dependencies>
    <build>
        <plugins>
            <plugin>
                <groupId>org.springframework.boot</groupId>
                <artifactId>spring-boot-maven-plugin</artifactId>
            </plugin>
        </plugins>
    </build>
</project>
`, validPackageRoot(p.plan.PackageRoot), p.artifact, p.name, escapeXML(p.plan.ProcessName), b.String())
}

func (p *project) applicationYAML() string {
	var b strings.Builder
	fmt.Fprintf(&b, "spring:\n  application:\n    name: %s\n", p.artifact)
	if p.has(ir.ActivityDataAccess) {
		fmt.Fprintf(&b, "  datasource:\n    url: jdbc:h2:mem:%s\n    username: sa\n    password: \"\"\n", p.artifact)
	}
	if p.has(ir.ActivityMessagingSend) || p.has(ir.ActivityMessagingReceive) {
		b.WriteString("  activemq:\n    broker-url: tcp://localhost:61616\n")
	}
	b.WriteString("server:\n  port: 8080\n")
	return b.String()
}

func (p *project) readme() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.name)
	fmt.Fprintf(&b, "Generated from the TIBCO BusinessWorks process **%s** using the %s architecture.\n\n", p.plan.ProcessName, p.plan.Architecture)
	fmt.Fprintf(&b, "Service styles: %s\n\n", p.styles)
	b.WriteString("## Activities\n\n")
	if len(p.steps) == 0 {
		b.WriteString("No activities were recognised in the source process.\n")
	}
	for i, s := range p.steps {
		fmt.Fprintf(&b, "%d. `%s` (%s)\n", i+1, s.activity.Name, s.activity.Kind)
	}
	if len(p.plan.Insights) > 0 {
		b.WriteString("\n## Knowledge base insights\n\n")
		for _, insight := range p.plan.Insights {
			fmt.Fprintf(&b, "- %s: `%s` in %s (score %.2f)\n", insight.Query, insight.ActivityID, insight.SourceProcess, insight.Score)
		}
	}
	b.WriteString("\nUse `mvn spring-boot:run` to start the service.\n")
	return b.String()
}

// writeDTOs emits one plain class per compound schema type into pkg.
func (p *project) writeDTOs(files map[string]string, pkg string) {
	for _, t := range p.dtos {
		files[p.javaFile(pkg, className(t.Name))] = dtoClass(p.pkg+"."+pkg, t)
	}
}

func (p *project) javaFile(pkg, class string) string {
	return p.sourceRoot + "/" + strings.ReplaceAll(pkg, ".", "/") + "/" + class + ".java"
}

func dtoClass(pkg string, t *ir.SchemaType) string {
	var types []string
	for _, f := range t.Fields {
		types = append(types, fieldType(f))
	}
	class := className(t.Name)
	var fields, accessors strings.Builder
	used := map[string]bool{}
	for _, f := range t.Fields {
		member := memberName(f.Name)
		if used[member] {
			continue
		}
		used[member] = true
		typ := fieldType(f)
		fmt.Fprintf(&fields, "    private %s %s;\n", typ, member)
		accessor := className(member)
		fmt.Fprintf(&accessors, "\n    public %s get%s() {\n        return %s;\n    }\n", typ, accessor, member)
		fmt.Fprintf(&accessors, "\n    public void set%s(%s %s) {\n        this.%s = %s;\n    }\n", accessor, typ, member, member, member)
	}
	return fmt.Sprintf(`package %s;

%spublic class %s {
%s%s}
`, pkg, importBlock(importsFor(types...)), class, fields.String(), accessors.String())
}

// modelImports lists the DTO imports a class in another package needs.
func (p *project) modelImports(modelPkg string, types ...string) []string {
	var out []string
	seen := map[string]bool{}
	for _, typ := range types {
		for _, t := range p.dtos {
			name := className(t.Name)
			if name == typ && !seen[name] {
				seen[name] = true
				out = append(out, p.pkg+"."+modelPkg+"."+name)
			}
		}
	}
	out = append(out, importsFor(types...)...)
	return out
}

func reverse(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[len(values)-1-i] = v
	}
	return out
}

func escapeXML(value string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;")
	return r.Replace(value)
}
