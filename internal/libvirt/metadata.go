package libvirt

import (
	"encoding/xml"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	// AnnotationsNamespace is the XML namespace of the annotations element.
	AnnotationsNamespace = "http://virtbind.cofront.xyz/v1alpha1"

	// AnnotationsKey is the namespace prefix used for the annotations element.
	AnnotationsKey = "virtbind"
)

// annotationsElement is the custom metadata element holding annotations.
// The map is stored as YAML text so it stays readable in "virsh dumpxml".
type annotationsElement struct {
	XMLName xml.Name `xml:"annotations"`
	Xmlns   string   `xml:"xmlns,attr"`
	YAML    string   `xml:",chardata"`
}

// StoreAnnotations replaces the annotations stored in the domain metadata.
func (d *Domain) StoreAnnotations(annotations map[string]string, flags uint32) error {
	data, err := yaml.Marshal(annotations)
	if err != nil {
		return fmt.Errorf("failed to marshal annotations to YAML: %w", err)
	}

	elem := annotationsElement{Xmlns: AnnotationsNamespace, YAML: string(data)}
	xmlData, err := xml.Marshal(elem)
	if err != nil {
		return fmt.Errorf("failed to marshal annotations to XML: %w", err)
	}

	return d.SetMetadata(MetadataSpec{
		Type:  MetadataElement,
		Value: string(xmlData),
		Key:   AnnotationsKey,
		URI:   AnnotationsNamespace,
		Flags: flags,
	})
}

// LoadAnnotations returns the annotations stored in the domain metadata.
// A domain without annotations yields an empty map.
func (d *Domain) LoadAnnotations(flags uint32) (map[string]string, error) {
	xmlStr, err := d.Metadata(MetadataElement, AnnotationsNamespace, flags)
	if err != nil {
		if IsNotFound(err) || isNoMetadata(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return parseAnnotations(xmlStr)
}

// DeleteAnnotations removes the annotations element from the domain.
func (d *Domain) DeleteAnnotations(flags uint32) error {
	return d.SetMetadata(MetadataSpec{
		Type:  MetadataElement,
		URI:   AnnotationsNamespace,
		Flags: flags,
	})
}

// Annotate merges set into the stored annotations and drops the keys in
// remove.
func (d *Domain) Annotate(set map[string]string, remove []string, flags uint32) (map[string]string, error) {
	current, err := d.LoadAnnotations(flags)
	if err != nil {
		return nil, err
	}
	for k, v := range set {
		current[k] = v
	}
	for _, k := range remove {
		delete(current, k)
	}
	if len(current) == 0 {
		return current, d.DeleteAnnotations(flags)
	}
	return current, d.StoreAnnotations(current, flags)
}

func parseAnnotations(xmlStr string) (map[string]string, error) {
	var elem annotationsElement
	if err := xml.Unmarshal([]byte(xmlStr), &elem); err != nil {
		return nil, fmt.Errorf("failed to unmarshal annotations XML: %w", err)
	}

	annotations := map[string]string{}
	if err := yaml.Unmarshal([]byte(elem.YAML), &annotations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal annotations from YAML: %w", err)
	}
	if annotations == nil {
		annotations = map[string]string{}
	}
	return annotations, nil
}

// codeNoDomainMetadata is libvirt's VIR_ERR_NO_DOMAIN_METADATA.
const codeNoDomainMetadata = 80

func isNoMetadata(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == codeNoDomainMetadata
}
