// File path: internal/workflow/generator/layout.go
package generator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nicodishanthj/Katral_bw/internal/ir"
)

// collaborator groups the activities served by one outbound component.
type collaborator struct {
	kind  ir.ActivityKind
	field string
	steps []step
	// class name suffixes per layout
	layered string
	port    string
	adapter string
}

func (p *project) collaborators() []collaborator {
	defs := []collaborator{
		{kind: ir.ActivityDataAccess, field: "repository", layered: "Repository", port: "Repository", adapter: "PersistenceAdapter"},
		{kind: ir.ActivityMessagingSend, field: "publisher", layered: "Publisher", port: "MessagePublisher", adapter: "JmsAdapter"},
		{kind: ir.ActivityOutboundCall, field: "client", layered: "Client", port: "Gateway", adapter: "HttpAdapter"},
	}
	var out []collaborator
	for _, c := range defs {
		c.steps = p.stepsOf(c.kind)
		if len(c.steps) > 0 {
			out = append(out, c)
		}
	}
	return out
}

func (p *project) writeLayered(files map[string]string) {
	p.writeDTOs(files, "dto")
	service := p.name + "Service"
	servicePkg := p.pkg + ".service"
	collabs := p.collaborators()

	var serviceImports []string
	var deps []dependency
	for _, c := range collabs {
		class := p.name + c.layered
		sub := collaboratorPackage(c.kind)
		serviceImports = append(serviceImports, p.pkg+"."+sub+"."+class)
		deps = append(deps, dependency{class: class, field: c.field})
		files[p.javaFile(sub, class)] = p.collaboratorClass(p.pkg+"."+sub, class, layeredAnnotation(c.kind), "", c)
	}
	files[p.javaFile("service", service)] = p.serviceClass(servicePkg, service, "", "dto", serviceImports, deps)

	serviceRef := servicePkg + "." + service
	if p.styles.Has(ir.StyleREST) {
		files[p.javaFile("controller", p.name+"Controller")] = p.restController(p.pkg+".controller", p.name+"Controller", serviceRef, service, "dto")
	}
	if p.styles.Has(ir.StyleSOAP) {
		files[p.javaFile("endpoint", p.name+"Endpoint")] = p.soapEndpoint(p.pkg+".endpoint", p.name+"Endpoint", serviceRef, service, "dto")
		files[p.javaFile("config", "WebServiceConfig")] = webServiceConfig(p.pkg + ".config")
	}
	if p.has(ir.ActivityMessagingReceive) {
		files[p.javaFile("messaging", p.name+"Listener")] = p.listener(p.pkg+".messaging", p.name+"Listener", serviceRef, service)
	}
}

func (p *project) writeHexagonal(files map[string]string) {
	p.writeDTOs(files, "domain.model")
	useCase := p.name + "UseCase"
	useCaseRef := p.pkg + ".domain.port.input." + useCase
	files[p.javaFile("domain.port.input", useCase)] = p.useCase(p.pkg+".domain.port.input", useCase)

	var serviceImports []string
	var deps []dependency
	for _, c := range p.collaborators() {
		port := p.name + c.port
		adapter := p.name + c.adapter
		portRef := p.pkg + ".domain.port.output." + port
		serviceImports = append(serviceImports, portRef)
		deps = append(deps, dependency{class: port, field: c.field})
		files[p.javaFile("domain.port.output", port)] = p.outputPort(p.pkg+".domain.port.output", port, c)
		adapterPkg := "adapter.output." + hexAdapterPackage(c.kind)
		files[p.javaFile(adapterPkg, adapter)] = p.collaboratorClass(p.pkg+"."+adapterPkg, adapter, "@Component", portRef, c)
	}
	serviceImports = append(serviceImports, useCaseRef)
	service := p.name + "Service"
	files[p.javaFile("domain.service", service)] = p.serviceClass(p.pkg+".domain.service", service, useCase, "domain.model", serviceImports, deps)

	if p.styles.Has(ir.StyleREST) {
		files[p.javaFile("adapter.input.rest", p.name+"RestController")] = p.restController(p.pkg+".adapter.input.rest", p.name+"RestController", useCaseRef, useCase, "domain.model")
	}
	if p.styles.Has(ir.StyleSOAP) {
		files[p.javaFile("adapter.input.soap", p.name+"SoapEndpoint")] = p.soapEndpoint(p.pkg+".adapter.input.soap", p.name+"SoapEndpoint", useCaseRef, useCase, "domain.model")
		files[p.javaFile("config", "WebServiceConfig")] = webServiceConfig(p.pkg + ".config")
	}
	if p.has(ir.ActivityMessagingReceive) {
		files[p.javaFile("adapter.input.messaging", p.name+"JmsListener")] = p.listener(p.pkg+".adapter.input.messaging", p.name+"JmsListener", useCaseRef, useCase)
	}
}

type dependency struct {
	class string
	field string
}

func collaboratorPackage(kind ir.ActivityKind) string {
	switch kind {
	case ir.ActivityDataAccess:
		return "repository"
	case ir.ActivityMessagingSend:
		return "messaging"
	default:
		return "client"
	}
}

func hexAdapterPackage(kind ir.ActivityKind) string {
	switch kind {
	case ir.ActivityDataAccess:
		return "persistence"
	case ir.ActivityMessagingSend:
		return "messaging"
	default:
		return "http"
	}
}

func layeredAnnotation(kind ir.ActivityKind) string {
	if kind == ir.ActivityDataAccess {
		return "@Repository"
	}
	return "@Component"
}

func (p *project) returnExpr() string {
	for _, t := range p.dtos {
		if className(t.Name) == p.response {
			return "new " + p.response + "()"
		}
	}
	return "null"
}

// serviceClass renders the orchestration of all steps in source order.
func (p *project) serviceClass(pkg, class, implements, modelPkg string, imports []string, deps []dependency) string {
	imports = append(imports, p.modelImports(modelPkg, p.request, p.response)...)
	imports = append(imports, "org.springframework.stereotype.Service")
	var fields, params, assigns, body, handlers strings.Builder
	for i, d := range deps {
		fmt.Fprintf(&fields, "    private final %s %s;\n", d.class, d.field)
		if i > 0 {
			params.WriteString(", ")
		}
		fmt.Fprintf(&params, "%s %s", d.class, d.field)
		fmt.Fprintf(&assigns, "        this.%s = %s;\n", d.field, d.field)
	}
	fieldFor := map[ir.ActivityKind]string{}
	for _, c := range p.collaborators() {
		fieldFor[c.kind] = c.field
	}
	override := ""
	if implements != "" {
		override = "    @Override\n"
	}
	for _, s := range p.steps {
		switch s.activity.Kind {
		case ir.ActivityInboundCall:
			fmt.Fprintf(&body, "        // %s: entry point\n", s.activity.Name)
		case ir.ActivityMessagingReceive:
			fmt.Fprintf(&body, "        // %s: delivered through handle%s\n", s.activity.Name, className(s.method))
			fmt.Fprintf(&handlers, "\n%s    public void handle%s(String message) {\n        process(null);\n    }\n", override, className(s.method))
		default:
			fmt.Fprintf(&body, "        %s.%s(request);\n", fieldFor[s.activity.Kind], s.method)
		}
	}
	decl := "public class " + class
	if implements != "" {
		decl += " implements " + implements
	}
	constructor := ""
	if len(deps) > 0 {
		constructor = fmt.Sprintf("\n    public %s(%s) {\n%s    }\n", class, params.String(), assigns.String())
	}
	return fmt.Sprintf(`package %s;

%s@Service
%s {
%s%s
%s    public %s process(%s request) {
%s        return %s;
    }
%s}
`, pkg, importBlock(sortedUnique(imports)), decl, fields.String(), constructor, override, p.response, p.request, body.String(), p.returnExpr(), handlers.String())
}

func (p *project) useCase(pkg, class string) string {
	var handlers strings.Builder
	for _, s := range p.stepsOf(ir.ActivityMessagingReceive) {
		fmt.Fprintf(&handlers, "\n    void handle%s(String message);\n", className(s.method))
	}
	return fmt.Sprintf(`package %s;

%spublic interface %s {
    %s process(%s request);
%s}
`, pkg, importBlock(sortedUnique(p.modelImports("domain.model", p.request, p.response))), class, p.response, p.request, handlers.String())
}

func (p *project) outputPort(pkg, class string, c collaborator) string {
	var methods strings.Builder
	for _, s := range c.steps {
		fmt.Fprintf(&methods, "    void %s(%s);\n", s.method, collaboratorParams(c.kind))
	}
	return fmt.Sprintf(`package %s;

public interface %s {
%s}
`, pkg, class, methods.String())
}

func collaboratorParams(kind ir.ActivityKind) string {
	if kind == ir.ActivityDataAccess {
		return "Object payload, Object... params"
	}
	return "Object payload"
}

// collaboratorClass renders the component performing outbound work for one
// activity kind. implements is the fully qualified port, if any.
func (p *project) collaboratorClass(pkg, class, annotation, implements string, c collaborator) string {
	var imports []string
	var constants, methods strings.Builder
	var field, ctorParam, ctorBody string
	switch c.kind {
	case ir.ActivityDataAccess:
		imports = append(imports, "org.springframework.jdbc.core.JdbcTemplate")
		field = "    private final JdbcTemplate jdbcTemplate;\n"
		ctorParam = "JdbcTemplate jdbcTemplate"
		ctorBody = "        this.jdbcTemplate = jdbcTemplate;\n"
	case ir.ActivityMessagingSend:
		imports = append(imports, "org.springframework.jms.core.JmsTemplate")
		field = "    private final JmsTemplate jmsTemplate;\n"
		ctorParam = "JmsTemplate jmsTemplate"
		ctorBody = "        this.jmsTemplate = jmsTemplate;\n"
	default:
		imports = append(imports, "org.springframework.http.HttpMethod", "org.springframework.web.client.RestClient")
		field = "    private final RestClient restClient;\n"
		ctorBody = "        this.restClient = RestClient.create();\n"
	}
	if annotation == "@Repository" {
		imports = append(imports, "org.springframework.stereotype.Repository")
	} else {
		imports = append(imports, "org.springframework.stereotype.Component")
	}
	override := ""
	decl := "public class " + class
	if implements != "" {
		imports = append(imports, implements)
		decl += " implements " + implements[strings.LastIndex(implements, ".")+1:]
		override = "    @Override\n"
	}
	for _, s := range c.steps {
		fmt.Fprintf(&methods, "\n    // %s\n%s    public void %s(%s) {\n%s    }\n", s.activity.Name, override, s.method, collaboratorParams(c.kind), p.stepBody(s, &constants))
	}
	return fmt.Sprintf(`package %s;

%s%s
%s {
%s
%s
    public %s(%s) {
%s    }
%s}
`, pkg, importBlock(sortedUnique(imports)), annotation, decl, constants.String(), field, class, ctorParam, ctorBody, methods.String())
}

// stepBody renders the call that replaces one legacy activity and records any
// constants it needs.
func (p *project) stepBody(s step, constants *strings.Builder) string {
	a := s.activity
	switch a.Kind {
	case ir.ActivityDataAccess:
		statement := strings.TrimSpace(a.Attr("sql.statement"))
		if statement == "" {
			return "        // no statement was declared on the source activity\n"
		}
		fmt.Fprintf(constants, "    static final String %s_SQL = %s;\n", s.constant, javaString(collapseSpace(statement)))
		if strings.HasPrefix(strings.ToLower(statement), "select") {
			return fmt.Sprintf("        jdbcTemplate.queryForList(%s_SQL, params);\n", s.constant)
		}
		return fmt.Sprintf("        jdbcTemplate.update(%s_SQL, params);\n", s.constant)
	case ir.ActivityMessagingSend:
		queue := firstAttr(a, "jms.queue", "jms.destination", "queue", "destination")
		if queue == "" {
			queue = p.artifact + "." + safeComponent(a.Name)
		}
		fmt.Fprintf(constants, "    static final String %s_QUEUE = %s;\n", s.constant, javaString(queue))
		return fmt.Sprintf("        jmsTemplate.convertAndSend(%s_QUEUE, String.valueOf(payload));\n", s.constant)
	default:
		url := firstAttr(a, "http.url", "url", "http.uri", "uri")
		if url == "" {
			url = "http://localhost:8080/" + safeComponent(a.Name)
		}
		method := strings.ToUpper(firstAttr(a, "http.method", "method"))
		if method == "" {
			method = "POST"
		}
		fmt.Fprintf(constants, "    static final String %s_URL = %s;\n", s.constant, javaString(url))
		return fmt.Sprintf(`        restClient.method(HttpMethod.valueOf(%s))
                .uri(%s_URL)
                .body(payload)
                .retrieve()
                .toBodilessEntity();
`, javaString(method), s.constant)
	}
}

func (p *project) restController(pkg, class, serviceRef, service, modelPkg string) string {
	imports := append([]string{serviceRef}, p.modelImports(modelPkg, p.request, p.response)...)
	mapping := "PostMapping"
	path := ""
	if entries := p.stepsOf(ir.ActivityInboundCall); len(entries) > 0 {
		entry := entries[0].activity
		if strings.ToUpper(firstAttr(entry, "http.method", "method")) == "PUT" {
			mapping = "PutMapping"
		}
		path = firstAttr(entry, "http.path", "path", "http.resourcepath", "resourcepath")
	}
	imports = append(imports,
		"org.springframework.http.ResponseEntity",
		"org.springframework.web.bind.annotation."+mapping,
		"org.springframework.web.bind.annotation.RequestBody",
		"org.springframework.web.bind.annotation.RequestMapping",
		"org.springframework.web.bind.annotation.RestController",
	)
	route := ""
	if path != "" {
		route = "(" + javaString(path) + ")"
	}
	return fmt.Sprintf(`package %s;

%s@RestController
@RequestMapping(%s)
public class %s {
    private final %s service;

    public %s(%s service) {
        this.service = service;
    }

    @%s%s
    public ResponseEntity<%s> process(@RequestBody %s request) {
        return ResponseEntity.ok(service.process(request));
    }
}
`, pkg, importBlock(sortedUnique(imports)), javaString(p.basePath), class, service, class, service, mapping, route, p.response, p.request)
}

func (p *project) soapEndpoint(pkg, class, serviceRef, service, modelPkg string) string {
	imports := append([]string{serviceRef}, p.modelImports(modelPkg, p.request, p.response)...)
	imports = append(imports,
		"org.springframework.ws.server.endpoint.annotation.Endpoint",
		"org.springframework.ws.server.endpoint.annotation.PayloadRoot",
		"org.springframework.ws.server.endpoint.annotation.RequestPayload",
		"org.springframework.ws.server.endpoint.annotation.ResponsePayload",
	)
	localPart := p.request
	for _, s := range p.steps {
		if op := firstAttr(s.activity, "soap.operation", "operation"); op != "" {
			localPart = op
			break
		}
	}
	return fmt.Sprintf(`package %s;

%s@Endpoint
public class %s {
    private static final String NAMESPACE_URI = %s;

    private final %s service;

    public %s(%s service) {
        this.service = service;
    }

    @PayloadRoot(namespace = NAMESPACE_URI, localPart = %s)
    @ResponsePayload
    public %s process(@RequestPayload %s request) {
        return service.process(request);
    }
}
`, pkg, importBlock(sortedUnique(imports)), class, javaString(p.namespace), service, class, service, javaString(localPart), p.response, p.request)
}

func (p *project) listener(pkg, class, serviceRef, service string) string {
	imports := []string{
		serviceRef,
		"org.springframework.jms.annotation.JmsListener",
		"org.springframework.stereotype.Component",
	}
	var methods strings.Builder
	for _, s := range p.stepsOf(ir.ActivityMessagingReceive) {
		queue := firstAttr(s.activity, "jms.queue", "jms.destination", "queue", "destination")
		if queue == "" {
			queue = p.artifact + "." + safeComponent(s.activity.Name)
		}
		fmt.Fprintf(&methods, "\n    @JmsListener(destination = %s)\n    public void on%s(String message) {\n        service.handle%s(message);\n    }\n",
			javaString(queue), className(s.method), className(s.method))
	}
	return fmt.Sprintf(`package %s;

%s@Component
public class %s {
    private final %s service;

    public %s(%s service) {
        this.service = service;
    }
%s}
`, pkg, importBlock(sortedUnique(imports)), class, service, class, service, methods.String())
}

func webServiceConfig(pkg string) string {
	return fmt.Sprintf(`package %s;

import org.springframework.boot.web.servlet.ServletRegistrationBean;
import org.springframework.context.ApplicationContext;
import org.springframework.context.annotation.Bean;
import org.springframework.context.annotation.Configuration;
import org.springframework.ws.config.annotation.EnableWs;
import org.springframework.ws.transport.http.MessageDispatcherServlet;

@EnableWs
@Configuration
public class WebServiceConfig {
    @Bean
    public ServletRegistrationBean<MessageDispatcherServlet> messageDispatcherServlet(ApplicationContext context) {
        MessageDispatcherServlet servlet = new MessageDispatcherServlet();
        servlet.setApplicationContext(context);
        servlet.setTransformWsdlLocations(true);
        return new ServletRegistrationBean<>(servlet, "/ws/*");
    }
}
`, pkg)
}

func firstAttr(a ir.Activity, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(a.Attr(key)); v != "" {
			return v
		}
	}
	return ""
}

func collapseSpace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func sortedUnique(values []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
